package strategy

import (
	"github.com/MiguelT18/trading-bot/internal/domain/models"
	domsvc "github.com/MiguelT18/trading-bot/internal/domain/service"
	"github.com/MiguelT18/trading-bot/pkg/config"
)

// Breakout fires when the latest sample crosses the resistance or support
// carried by the snapshot while the previous sample had not.
type Breakout struct{}

func (Breakout) Name() string { return config.StrategyBreakout }

func (Breakout) Evaluate(snap models.Snapshot) models.Signal {
	n := len(snap.Short)
	if n < 2 || !snap.Levels.Valid {
		return models.SignalNone
	}
	cur, prev := snap.Short[n-1], snap.Short[n-2]
	lv := snap.Levels
	if cur > lv.Resistance && prev <= lv.Resistance {
		return models.SignalBuy
	}
	if cur < lv.Support && prev >= lv.Support {
		return models.SignalSell
	}
	return models.SignalNone
}

var _ domsvc.Strategy = Breakout{}
