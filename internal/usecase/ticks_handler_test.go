package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
	"github.com/MiguelT18/trading-bot/pkg/metrics"
)

type priceStore struct{ samples []models.PriceSample }

func (s *priceStore) Update(p models.PriceSample) { s.samples = append(s.samples, p) }

func TestTicksHandler(t *testing.T) {
	store := &priceStore{}
	h := NewTicksHandler("ticks", store, metrics.Nop{})
	now := time.Unix(1_700_000_100, 0)
	h.now = func() time.Time { return now }
	ctx := context.Background()

	assert.Equal(t, "ticks", h.Topic())
	require.NoError(t, h.Handle(ctx, []byte(`{"symbol":"frxEURUSD","t":1700000000,"c":1.0842}`)))
	require.NoError(t, h.Handle(ctx, []byte(`{"symbol":"frxEURUSD","t":1700000001000,"c":1.0843}`)))
	require.NoError(t, h.Handle(ctx, []byte(`{"symbol":"frxEURUSD","c":1.0844}`)))

	require.Len(t, store.samples, 3)
	assert.Equal(t, 1.0842, store.samples[0].Price)
	assert.Equal(t, time.Unix(1_700_000_000, 0), store.samples[0].Time)
	assert.Equal(t, time.Unix(1_700_000_001, 0), store.samples[1].Time)
	assert.Equal(t, now, store.samples[2].Time)

	assert.Error(t, h.Handle(ctx, []byte(`{`)))
	assert.NoError(t, h.Handle(ctx, []byte(`{"symbol":"","c":1}`)))
	assert.Len(t, store.samples, 3)
}
