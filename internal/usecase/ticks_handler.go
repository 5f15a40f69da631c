package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
	domrepo "github.com/MiguelT18/trading-bot/internal/domain/repository"
	pkgkafka "github.com/MiguelT18/trading-bot/pkg/kafka"
)

// TicksHandler consumes tick messages and stores the latest close per instrument.
type TicksHandler struct {
	topic   string
	store   domrepo.PriceStore
	metrics domrepo.Metrics
	now     func() time.Time
}

func NewTicksHandler(topic string, store domrepo.PriceStore, metrics domrepo.Metrics) *TicksHandler {
	return &TicksHandler{topic: topic, store: store, metrics: metrics, now: time.Now}
}

func (h *TicksHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, c}; t in seconds or milliseconds
func (h *TicksHandler) Handle(_ context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode tick: %w", err)
	}
	if m.Symbol == "" || m.C <= 0 {
		h.metrics.RecordError("consumer_invalid")
		// retrying cannot fix a malformed tick
		return nil
	}

	ts := h.now()
	if m.T > 0 {
		if m.T > 1e11 { // ms
			ts = time.UnixMilli(m.T)
		} else {
			ts = time.Unix(m.T, 0)
		}
		h.metrics.RecordLatency("ingest_e2e_seconds", h.now().Sub(ts).Seconds())
	}

	h.store.Update(models.PriceSample{Instrument: m.Symbol, Price: m.C, Time: ts})
	h.metrics.RecordLastPrice(m.Symbol, m.C)
	return nil
}

var _ pkgkafka.MessageHandler = (*TicksHandler)(nil)
