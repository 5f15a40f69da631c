package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordTick("frxEURUSD", "evaluated")
	r.RecordTick("frxEURUSD", "evaluated")
	r.RecordTick("frxEURUSD", "fetch_error")
	r.RecordSignal("crossing", models.SignalBuy)
	r.RecordDecision("frxEURUSD", models.DirectionSell)
	r.RecordLastPrice("frxEURUSD", 1.0842)
	r.RecordError("feed")
	r.RecordLatency("fetch", 0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ticks.WithLabelValues("frxEURUSD", "evaluated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ticks.WithLabelValues("frxEURUSD", "fetch_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.signals.WithLabelValues("crossing", "buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.decisions.WithLabelValues("frxEURUSD", "sell")))
	assert.Equal(t, 1.0842, testutil.ToFloat64(r.lastPrice.WithLabelValues("frxEURUSD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errors.WithLabelValues("feed")))

	n, err := testutil.GatherAndCount(reg, "tradingbot_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordersOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
