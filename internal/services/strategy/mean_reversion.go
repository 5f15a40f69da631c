package strategy

import (
	"github.com/MiguelT18/trading-bot/internal/domain/models"
	domsvc "github.com/MiguelT18/trading-bot/internal/domain/service"
	"github.com/MiguelT18/trading-bot/internal/services/window"
	"github.com/MiguelT18/trading-bot/pkg/config"
)

// MeanReversion bets on the latest price returning to the long-window mean.
type MeanReversion struct{}

func (MeanReversion) Name() string { return config.StrategyMeanReversion }

func (MeanReversion) Evaluate(snap models.Snapshot) models.Signal {
	cur, ok := snap.Latest()
	if !ok || len(snap.Long) == 0 {
		return models.SignalNone
	}
	mean := window.Mean(snap.Long)
	switch {
	case cur > mean:
		return models.SignalSell
	case cur < mean:
		return models.SignalBuy
	default:
		return models.SignalHold
	}
}

var _ domsvc.Strategy = MeanReversion{}
