// Package window keeps the rolling short and long price buffers of one instrument.
package window

import (
	"fmt"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
)

// Default capacities.
const (
	DefaultShortCap = 5
	DefaultLongCap  = 20
)

// buffer is a FIFO of at most cap values, oldest first.
type buffer struct {
	cap    int
	values []float64
}

func (b *buffer) push(v float64) {
	if len(b.values) >= b.cap {
		// shift left over the evicted head; keeps the backing array bounded
		copy(b.values, b.values[1:])
		b.values = b.values[:len(b.values)-1]
	}
	b.values = append(b.values, v)
}

func (b *buffer) snapshot() []float64 {
	out := make([]float64, len(b.values))
	copy(out, b.values)
	return out
}

// PriceWindow is not safe for concurrent use; it is owned by a single trading loop.
type PriceWindow struct {
	short buffer
	long  buffer
}

// New creates a window with the given capacities.
func New(shortCap, longCap int) (*PriceWindow, error) {
	if shortCap <= 0 || longCap <= 0 {
		return nil, fmt.Errorf("window capacities must be positive, got short=%d long=%d", shortCap, longCap)
	}
	return &PriceWindow{
		short: buffer{cap: shortCap, values: make([]float64, 0, shortCap)},
		long:  buffer{cap: longCap, values: make([]float64, 0, longCap)},
	}, nil
}

// Push appends the price to both buffers, evicting the oldest on overflow.
func (w *PriceWindow) Push(price float64) {
	w.short.push(price)
	w.long.push(price)
}

// ShortValues returns the short buffer, oldest to newest.
func (w *PriceWindow) ShortValues() []float64 { return w.short.snapshot() }

// LongValues returns the long buffer, oldest to newest.
func (w *PriceWindow) LongValues() []float64 { return w.long.snapshot() }

func (w *PriceWindow) ShortCap() int { return w.short.cap }
func (w *PriceWindow) LongCap() int  { return w.long.cap }

// Len returns the current lengths of the short and long buffers.
func (w *PriceWindow) Len() (short, long int) {
	return len(w.short.values), len(w.long.values)
}

// Levels computes support and resistance from the current short buffer.
func (w *PriceWindow) Levels() models.LevelState {
	return LevelsOf(w.short.values)
}

// Snapshot copies the window and the given levels for one evaluation.
func (w *PriceWindow) Snapshot(levels models.LevelState) models.Snapshot {
	return models.Snapshot{
		Short:    w.short.snapshot(),
		Long:     w.long.snapshot(),
		ShortCap: w.short.cap,
		LongCap:  w.long.cap,
		Levels:   levels,
	}
}

// LevelsOf returns min/max of prices; invalid when prices is empty.
func LevelsOf(prices []float64) models.LevelState {
	if len(prices) == 0 {
		return models.LevelState{}
	}
	lo, hi := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return models.LevelState{Support: lo, Resistance: hi, Valid: true}
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
