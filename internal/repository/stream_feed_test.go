package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
	"github.com/MiguelT18/trading-bot/internal/domain/repository"
)

func TestStreamFeedHandsOutEachSampleOnce(t *testing.T) {
	f := NewStreamFeed()
	ctx := context.Background()

	_, err := f.FetchLatestPrice(ctx, "frxEURUSD")
	assert.ErrorIs(t, err, repository.ErrNoFreshPrice)

	t0 := time.Unix(100, 0)
	f.Update(models.PriceSample{Instrument: "frxEURUSD", Price: 1.1, Time: t0})
	f.Update(models.PriceSample{Instrument: "frxEURUSD", Price: 1.2, Time: t0.Add(time.Second)})

	got, err := f.FetchLatestPrice(ctx, "frxEURUSD")
	require.NoError(t, err)
	assert.Equal(t, 1.2, got.Price)

	_, err = f.FetchLatestPrice(ctx, "frxEURUSD")
	assert.ErrorIs(t, err, repository.ErrNoFreshPrice)

	peek, ok := f.Peek("frxEURUSD")
	assert.True(t, ok)
	assert.Equal(t, 1.2, peek.Price)
}

func TestStreamFeedIgnoresOutOfOrderSamples(t *testing.T) {
	f := NewStreamFeed()
	t0 := time.Unix(100, 0)
	f.Update(models.PriceSample{Instrument: "R_100", Price: 2, Time: t0})
	f.Update(models.PriceSample{Instrument: "R_100", Price: 1, Time: t0.Add(-time.Second)})

	got, err := f.FetchLatestPrice(context.Background(), "R_100")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Price)
}

func TestStreamFeedHonoursContext(t *testing.T) {
	f := NewStreamFeed()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchLatestPrice(ctx, "R_100")
	assert.ErrorIs(t, err, context.Canceled)
}
