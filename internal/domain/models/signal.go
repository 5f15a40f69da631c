package models

import "time"

// Signal is the opinion of a single strategy for one tick.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalNone Signal = "none"
	// SignalHold is only produced by mean reversion; consensus treats it as none.
	SignalHold Signal = "hold"
)

// Direction of a trade decision.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// PriceSample is one close price observed for an instrument.
type PriceSample struct {
	Instrument string
	Price      float64
	Time       time.Time
}

// LevelState holds support (min) and resistance (max) of the short window.
// Valid is false until the first sample has been pushed.
type LevelState struct {
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
	Valid      bool    `json:"valid"`
}

// Snapshot is a read-only copy of the price windows for exactly one tick.
type Snapshot struct {
	Short    []float64
	Long     []float64
	ShortCap int
	LongCap  int
	Levels   LevelState
}

// Latest returns the newest short-window sample.
func (s Snapshot) Latest() (float64, bool) {
	if len(s.Short) == 0 {
		return 0, false
	}
	return s.Short[len(s.Short)-1], true
}

// TradeDecision is produced only when every strategy agrees.
type TradeDecision struct {
	Direction Direction `json:"direction"`
	Size      float64   `json:"size"`
}

// TradeIntent is the event emitted for a decision.
type TradeIntent struct {
	ID         string    `json:"id"`
	Instrument string    `json:"instrument"`
	Direction  Direction `json:"direction"`
	Size       float64   `json:"size"`
	Price      float64   `json:"price"`
	Time       time.Time `json:"time"`
}
