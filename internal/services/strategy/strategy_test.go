package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
)

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func snap(short, long []float64) models.Snapshot {
	return models.Snapshot{Short: short, Long: long, ShortCap: 5, LongCap: 20}
}

func TestCrossing(t *testing.T) {
	tests := []struct {
		name  string
		short []float64
		long  []float64
		want  models.Signal
	}{
		{"short window not full", []float64{1, 2, 3, 4}, repeat(3, 20), models.SignalNone},
		{"long window not full", []float64{1, 2, 3, 4, 5}, repeat(3, 19), models.SignalNone},
		{"equal averages", []float64{1, 2, 3, 4, 5}, repeat(3, 20), models.SignalNone},
		{"short above long", []float64{4, 4, 4, 4, 4}, repeat(3, 20), models.SignalBuy},
		{"short below long", []float64{2, 2, 2, 2, 2}, repeat(3, 20), models.SignalSell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Crossing{}.Evaluate(snap(tt.short, tt.long)))
		})
	}
}

func TestRSIRequiresPeriodSamples(t *testing.T) {
	r := RSI{Period: DefaultRSIPeriod}
	// default short capacity is 5, so rsi can never see 14 samples
	assert.Equal(t, models.SignalNone, r.Evaluate(snap([]float64{1, 2, 3, 4, 5}, nil)))
}

func TestRSIZeroLossIsBuy(t *testing.T) {
	r := RSI{Period: 14}
	prices := make([]float64, 14)
	for i := range prices {
		prices[i] = float64(i + 1)
	}
	assert.Equal(t, models.SignalBuy, r.Evaluate(snap(prices, nil)))

	v, ok := r.Value(prices)
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestRSIThresholds(t *testing.T) {
	r := RSI{Period: 4}

	// gains 3, losses 1 -> rs 3 -> rsi 75
	v, ok := r.Value([]float64{10, 11, 12, 11, 12})
	require.True(t, ok)
	assert.InDelta(t, 75.0, v, 1e-9)
	assert.Equal(t, models.SignalSell, r.Evaluate(snap([]float64{10, 11, 12, 11, 12}, nil)))

	// gains 1, losses 3 -> rsi 25
	assert.Equal(t, models.SignalBuy, r.Evaluate(snap([]float64{12, 11, 10, 11, 10}, nil)))

	// gains 2, losses 2 -> rsi 50
	assert.Equal(t, models.SignalNone, r.Evaluate(snap([]float64{10, 11, 10, 11, 10}, nil)))
}

func TestRSIFlatSeriesIsBuy(t *testing.T) {
	r := RSI{Period: 3}
	assert.Equal(t, models.SignalBuy, r.Evaluate(snap([]float64{5, 5, 5}, nil)))
}

func TestBreakout(t *testing.T) {
	levels := models.LevelState{Support: 5, Resistance: 10, Valid: true}

	up := models.Snapshot{Short: []float64{9, 11}, Levels: levels}
	assert.Equal(t, models.SignalBuy, Breakout{}.Evaluate(up))

	down := models.Snapshot{Short: []float64{6, 4}, Levels: levels}
	assert.Equal(t, models.SignalSell, Breakout{}.Evaluate(down))

	already := models.Snapshot{Short: []float64{11, 12}, Levels: levels}
	assert.Equal(t, models.SignalNone, Breakout{}.Evaluate(already))

	one := models.Snapshot{Short: []float64{11}, Levels: levels}
	assert.Equal(t, models.SignalNone, Breakout{}.Evaluate(one))

	noLevels := models.Snapshot{Short: []float64{9, 11}}
	assert.Equal(t, models.SignalNone, Breakout{}.Evaluate(noLevels))
}

func TestBreakoutWithLevelsOfCurrentWindow(t *testing.T) {
	// levels taken from a window that already holds the latest sample can
	// never be exceeded by that sample
	short := []float64{1, 2, 3, 4, 11}
	s := models.Snapshot{Short: short, Levels: models.LevelState{Support: 1, Resistance: 11, Valid: true}}
	assert.Equal(t, models.SignalNone, Breakout{}.Evaluate(s))
}

func TestMeanReversion(t *testing.T) {
	long := repeat(3, 20)
	assert.Equal(t, models.SignalSell, MeanReversion{}.Evaluate(snap([]float64{4}, long)))
	assert.Equal(t, models.SignalBuy, MeanReversion{}.Evaluate(snap([]float64{2}, long)))
	assert.Equal(t, models.SignalHold, MeanReversion{}.Evaluate(snap([]float64{3}, long)))
	assert.Equal(t, models.SignalNone, MeanReversion{}.Evaluate(snap(nil, nil)))
}

func TestBuild(t *testing.T) {
	ss, err := Build([]string{"crossing", "rsi", "breakout", "mean_reversion"}, Params{RSIPeriod: 14})
	require.NoError(t, err)
	require.Len(t, ss, 4)
	assert.Equal(t, "crossing", ss[0].Name())
	assert.Equal(t, RSI{Period: 14}, ss[1])
	assert.Equal(t, "mean_reversion", ss[3].Name())

	_, err = Build(nil, Params{RSIPeriod: 14})
	assert.Error(t, err)

	_, err = Build([]string{"macd"}, Params{RSIPeriod: 14})
	assert.ErrorContains(t, err, "unknown strategy")

	_, err = Build([]string{"rsi"}, Params{})
	assert.Error(t, err)
}

func TestEvaluateAllKeepsOrder(t *testing.T) {
	ss, err := Build([]string{"mean_reversion", "crossing"}, Params{RSIPeriod: 14})
	require.NoError(t, err)

	got := EvaluateAll(ss, snap([]float64{4}, repeat(3, 20)))
	assert.Equal(t, []models.StrategySignal{
		{Strategy: "mean_reversion", Signal: models.SignalSell},
		{Strategy: "crossing", Signal: models.SignalNone},
	}, got)
}
