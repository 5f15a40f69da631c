package models

import "time"

// StrategySignal pairs a strategy name with the signal it produced.
type StrategySignal struct {
	Strategy string `json:"strategy"`
	Signal   Signal `json:"signal"`
}

// Evaluation is the consolidated outcome of one tick.
// Note: no transport (json/http) concerns beyond field tags.
type Evaluation struct {
	Seq        uint64           `json:"seq"`
	Instrument string           `json:"instrument"`
	Price      float64          `json:"price"`
	Timestamp  time.Time        `json:"timestamp"`
	Levels     LevelState       `json:"levels"`
	Signals    []StrategySignal `json:"signals"`
	Decision   *TradeDecision   `json:"decision,omitempty"`
	IntentID   string           `json:"intent_id,omitempty"`
}

// Values returns the bare signals in strategy order.
func (e Evaluation) Values() []Signal {
	out := make([]Signal, len(e.Signals))
	for i, s := range e.Signals {
		out[i] = s.Signal
	}
	return out
}

// LoopStatus is a point-in-time view of a trading loop for observers.
type LoopStatus struct {
	Instrument  string      `json:"instrument"`
	Running     bool        `json:"running"`
	Strategies  []string    `json:"strategies"`
	ShortLen    int         `json:"short_len"`
	LongLen     int         `json:"long_len"`
	ShortCap    int         `json:"short_cap"`
	LongCap     int         `json:"long_cap"`
	Ticks       uint64      `json:"ticks"`
	Skipped     uint64      `json:"skipped"`
	FetchErrors uint64      `json:"fetch_errors"`
	Decisions   uint64      `json:"decisions"`
	TradeSize   float64     `json:"trade_size"`
	Last        *Evaluation `json:"last,omitempty"`
}
