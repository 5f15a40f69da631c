package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
)

func eval(seq uint64, dir models.Direction) models.Evaluation {
	e := models.Evaluation{Seq: seq, Signals: []models.StrategySignal{{Strategy: "crossing", Signal: models.SignalNone}}}
	if dir != "" {
		e.Decision = &models.TradeDecision{Direction: dir, Size: 2}
	}
	return e
}

func seqs(es []models.Evaluation) []uint64 {
	out := make([]uint64, len(es))
	for i, e := range es {
		out[i] = e.Seq
	}
	return out
}

func TestJournalWrapsAndReturnsNewestFirst(t *testing.T) {
	j := NewJournal(3)
	_, ok := j.Last()
	assert.False(t, ok)

	for i := uint64(1); i <= 5; i++ {
		j.Record(eval(i, ""))
	}
	assert.Equal(t, []uint64{5, 4, 3}, seqs(j.Recent(10, "any")))
	assert.Equal(t, []uint64{5, 4}, seqs(j.Recent(2, "")))
	assert.Equal(t, uint64(5), j.Total())

	last, ok := j.Last()
	assert.True(t, ok)
	assert.Equal(t, uint64(5), last.Seq)
}

func TestJournalFiltersByDecision(t *testing.T) {
	j := NewJournal(10)
	j.Record(eval(1, models.DirectionBuy))
	j.Record(eval(2, ""))
	j.Record(eval(3, models.DirectionSell))
	j.Record(eval(4, models.DirectionBuy))

	assert.Equal(t, []uint64{4, 1}, seqs(j.Recent(10, "buy")))
	assert.Equal(t, []uint64{3}, seqs(j.Recent(10, "sell")))
	assert.Equal(t, []uint64{2}, seqs(j.Recent(10, "none")))
	assert.Equal(t, []uint64{4}, seqs(j.Recent(1, "buy")))
}

func TestJournalStoresCopies(t *testing.T) {
	j := NewJournal(2)
	e := eval(1, models.DirectionBuy)
	j.Record(e)
	e.Signals[0].Signal = models.SignalBuy
	e.Decision.Size = 99

	got, _ := j.Last()
	assert.Equal(t, models.SignalNone, got.Signals[0].Signal)
	assert.Equal(t, 2.0, got.Decision.Size)
}
