// Package strategy holds the technical-analysis strategies and their registry.
package strategy

import (
	"fmt"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
	domsvc "github.com/MiguelT18/trading-bot/internal/domain/service"
	"github.com/MiguelT18/trading-bot/pkg/config"
)

// Params carries the tunables shared by the registry.
type Params struct {
	RSIPeriod int
}

// New returns the strategy registered under name.
func New(name string, p Params) (domsvc.Strategy, error) {
	switch name {
	case config.StrategyCrossing:
		return Crossing{}, nil
	case config.StrategyRSI:
		if p.RSIPeriod <= 0 {
			return nil, fmt.Errorf("rsi period must be positive, got %d", p.RSIPeriod)
		}
		return RSI{Period: p.RSIPeriod}, nil
	case config.StrategyBreakout:
		return Breakout{}, nil
	case config.StrategyMeanReversion:
		return MeanReversion{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// Build resolves an ordered list of strategy names.
func Build(names []string, p Params) ([]domsvc.Strategy, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("strategy list is empty")
	}
	out := make([]domsvc.Strategy, 0, len(names))
	for _, n := range names {
		s, err := New(n, p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// EvaluateAll runs every strategy against the same snapshot, in order.
func EvaluateAll(strategies []domsvc.Strategy, snap models.Snapshot) []models.StrategySignal {
	out := make([]models.StrategySignal, len(strategies))
	for i, s := range strategies {
		out[i] = models.StrategySignal{Strategy: s.Name(), Signal: s.Evaluate(snap)}
	}
	return out
}
