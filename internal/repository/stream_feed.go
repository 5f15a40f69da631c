package repository

import (
	"context"
	"sync"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
	"github.com/MiguelT18/trading-bot/internal/domain/repository"
)

// StreamFeed serves prices pushed by a stream consumer. Each sample is handed
// out at most once so a quiet stream never repeats a stale price.
type StreamFeed struct {
	mu     sync.Mutex
	latest map[string]entry
}

type entry struct {
	sample models.PriceSample
	fresh  bool
}

func NewStreamFeed() *StreamFeed {
	return &StreamFeed{latest: make(map[string]entry)}
}

// Update stores sample as the newest price of its instrument. Samples older
// than the stored one are ignored.
func (f *StreamFeed) Update(sample models.PriceSample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.latest[sample.Instrument]; ok && sample.Time.Before(cur.sample.Time) {
		return
	}
	f.latest[sample.Instrument] = entry{sample: sample, fresh: true}
}

func (f *StreamFeed) FetchLatestPrice(ctx context.Context, instrument string) (models.PriceSample, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSample{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.latest[instrument]
	if !ok || !e.fresh {
		return models.PriceSample{}, repository.ErrNoFreshPrice
	}
	e.fresh = false
	f.latest[instrument] = e
	return e.sample, nil
}

// Peek returns the newest sample without consuming it.
func (f *StreamFeed) Peek(instrument string) (models.PriceSample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.latest[instrument]
	return e.sample, ok
}

var (
	_ repository.PriceFeed  = (*StreamFeed)(nil)
	_ repository.PriceStore = (*StreamFeed)(nil)
)
