package service

import (
	"github.com/MiguelT18/trading-bot/internal/domain/models"
)

// Strategy maps one window snapshot to a signal. Implementations must be pure:
// no state is kept between calls beyond what the snapshot carries.
type Strategy interface {
	Name() string
	Evaluate(snap models.Snapshot) models.Signal
}

// Sizer computes the position size of a decision.
type Sizer interface {
	Size() float64
}
