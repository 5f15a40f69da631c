package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
	"github.com/MiguelT18/trading-bot/internal/domain/repository"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticks     *prometheus.CounterVec
	signals   *prometheus.CounterVec
	decisions *prometheus.CounterVec
	errors    *prometheus.CounterVec
	lastPrice *prometheus.GaugeVec
	latency   *prometheus.HistogramVec
}

// New creates a recorder whose collectors are registered on reg.
// A nil reg falls back to the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		ticks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingbot_ticks_total",
				Help: "Scheduler ticks by outcome",
			},
			[]string{"instrument", "result"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingbot_strategy_signals_total",
				Help: "Signals produced per strategy",
			},
			[]string{"strategy", "signal"},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingbot_decisions_total",
				Help: "Unanimous trade decisions",
			},
			[]string{"instrument", "direction"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingbot_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradingbot_last_price",
				Help: "Last recorded price for an instrument",
			},
			[]string{"instrument"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradingbot_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordTick(instrument, result string) {
	r.ticks.WithLabelValues(instrument, result).Inc()
}

func (r *Recorder) RecordSignal(strategy string, signal models.Signal) {
	r.signals.WithLabelValues(strategy, string(signal)).Inc()
}

func (r *Recorder) RecordDecision(instrument string, direction models.Direction) {
	r.decisions.WithLabelValues(instrument, string(direction)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for an instrument.
func (r *Recorder) RecordLastPrice(instrument string, price float64) {
	r.lastPrice.WithLabelValues(instrument).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTick(string, string) {}
func (Nop) RecordSignal(string, models.Signal) {}
func (Nop) RecordDecision(string, models.Direction) {}
func (Nop) RecordError(string) {}
func (Nop) RecordLastPrice(string, float64) {}
func (Nop) RecordLatency(string, float64) {}

var (
	_ repository.Metrics = (*Recorder)(nil)
	_ repository.Metrics = Nop{}
)
