// Package consensus reduces per-strategy signals to a single trade direction.
package consensus

import "github.com/MiguelT18/trading-bot/internal/domain/models"

// Decide returns a direction only when every signal agrees on it.
// hold and none never count toward agreement, and an empty list decides nothing.
func Decide(signals []models.Signal) (models.Direction, bool) {
	if len(signals) == 0 {
		return "", false
	}
	buys, sells := 0, 0
	for _, s := range signals {
		switch s {
		case models.SignalBuy:
			buys++
		case models.SignalSell:
			sells++
		}
	}
	switch len(signals) {
	case buys:
		return models.DirectionBuy, true
	case sells:
		return models.DirectionSell, true
	}
	return "", false
}

// Tally counts signals by value, used for status reporting.
func Tally(signals []models.Signal) map[models.Signal]int {
	out := make(map[models.Signal]int, 4)
	for _, s := range signals {
		out[s]++
	}
	return out
}
