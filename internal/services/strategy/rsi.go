package strategy

import (
	"math"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
	domsvc "github.com/MiguelT18/trading-bot/internal/domain/service"
	"github.com/MiguelT18/trading-bot/pkg/config"
)

const (
	DefaultRSIPeriod = 14

	rsiOverbought = 70
	rsiOversold   = 30
)

// RSI is a relative strength index over the short window.
// It stays silent until the short window holds at least Period samples.
type RSI struct {
	Period int
}

func (RSI) Name() string { return config.StrategyRSI }

func (r RSI) Evaluate(snap models.Snapshot) models.Signal {
	avgGain, avgLoss, ok := r.averages(snap.Short)
	if !ok {
		return models.SignalNone
	}
	// no losses at all reads as strongly bullish
	if avgLoss == 0 {
		return models.SignalBuy
	}
	v := index(avgGain, avgLoss)
	switch {
	case v > rsiOverbought:
		return models.SignalSell
	case v < rsiOversold:
		return models.SignalBuy
	default:
		return models.SignalNone
	}
}

// Value returns the index of prices. A series without losses yields 100.
func (r RSI) Value(prices []float64) (float64, bool) {
	avgGain, avgLoss, ok := r.averages(prices)
	if !ok {
		return 0, false
	}
	if avgLoss == 0 {
		return 100, true
	}
	return index(avgGain, avgLoss), true
}

// averages sums the moves of the whole series but divides by Period.
func (r RSI) averages(prices []float64) (avgGain, avgLoss float64, ok bool) {
	if r.Period <= 0 || len(prices) < r.Period {
		return 0, 0, false
	}
	var gains, losses float64
	for i := 1; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gains += d
		} else {
			losses += math.Abs(d)
		}
	}
	return gains / float64(r.Period), losses / float64(r.Period), true
}

func index(avgGain, avgLoss float64) float64 {
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

var _ domsvc.Strategy = RSI{}
