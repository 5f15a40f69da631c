package strategy

import (
	"github.com/MiguelT18/trading-bot/internal/domain/models"
	domsvc "github.com/MiguelT18/trading-bot/internal/domain/service"
	"github.com/MiguelT18/trading-bot/internal/services/window"
	"github.com/MiguelT18/trading-bot/pkg/config"
)

// Crossing compares the short and long simple moving averages once both
// windows are full.
type Crossing struct{}

func (Crossing) Name() string { return config.StrategyCrossing }

func (Crossing) Evaluate(snap models.Snapshot) models.Signal {
	if len(snap.Short) < snap.ShortCap || len(snap.Long) < snap.LongCap || len(snap.Short) == 0 || len(snap.Long) == 0 {
		return models.SignalNone
	}
	shortSMA := window.Mean(snap.Short)
	longSMA := window.Mean(snap.Long)
	switch {
	case shortSMA > longSMA:
		return models.SignalBuy
	case shortSMA < longSMA:
		return models.SignalSell
	default:
		return models.SignalNone
	}
}

var _ domsvc.Strategy = Crossing{}
