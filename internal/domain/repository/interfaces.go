package repository

import (
	"context"
	"errors"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
)

// ErrNoFreshPrice is returned by a feed when nothing new arrived since the last fetch.
var ErrNoFreshPrice = errors.New("no fresh price")

// PriceFeed supplies at most one price sample per call.
type PriceFeed interface {
	FetchLatestPrice(ctx context.Context, instrument string) (models.PriceSample, error)
}

// ConnectedFeed is a PriceFeed backed by a long-lived connection.
type ConnectedFeed interface {
	PriceFeed
	Connect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// PriceStore accepts samples pushed by a streaming source, such as the
// Kafka ticks topic, for a PriceFeed to hand out later.
type PriceStore interface {
	Update(sample models.PriceSample)
}

// IntentSink receives trade intents produced by the trading loop.
type IntentSink interface {
	Emit(ctx context.Context, intent models.TradeIntent) error
	Close() error
}

type Metrics interface {
	RecordTick(instrument, result string)
	RecordSignal(strategy string, signal models.Signal)
	RecordDecision(instrument string, direction models.Direction)
	RecordLastPrice(instrument string, price float64)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
}

// Tick results reported through Metrics.RecordTick.
const (
	TickEvaluated   = "evaluated"
	TickFetchError  = "fetch_error"
	TickNoSample    = "no_sample"
	TickSkippedBusy = "skipped_busy"
)
