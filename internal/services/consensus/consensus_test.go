package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
)

func TestDecide(t *testing.T) {
	const (
		buy  = models.SignalBuy
		sell = models.SignalSell
		none = models.SignalNone
		hold = models.SignalHold
	)
	tests := []struct {
		name    string
		signals []models.Signal
		want    models.Direction
		ok      bool
	}{
		{"empty", nil, "", false},
		{"single buy", []models.Signal{buy}, models.DirectionBuy, true},
		{"single sell", []models.Signal{sell}, models.DirectionSell, true},
		{"all buy", []models.Signal{buy, buy, buy, buy}, models.DirectionBuy, true},
		{"all sell", []models.Signal{sell, sell, sell}, models.DirectionSell, true},
		{"one none blocks", []models.Signal{buy, buy, buy, none}, "", false},
		{"hold blocks", []models.Signal{sell, sell, hold}, "", false},
		{"mixed", []models.Signal{buy, sell}, "", false},
		{"all none", []models.Signal{none, none}, "", false},
		{"all hold", []models.Signal{hold}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Decide(tt.signals)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTally(t *testing.T) {
	got := Tally([]models.Signal{models.SignalBuy, models.SignalNone, models.SignalBuy})
	assert.Equal(t, 2, got[models.SignalBuy])
	assert.Equal(t, 1, got[models.SignalNone])
	assert.Zero(t, got[models.SignalSell])
}
