package usecase

import (
	"sync"

	"github.com/MiguelT18/trading-bot/internal/domain/models"
)

// Journal keeps the most recent evaluations in memory. It is the only
// state shared between the loop and HTTP readers.
type Journal struct {
	mu    sync.RWMutex
	buf   []models.Evaluation
	next  int
	full  bool
	total uint64
}

func NewJournal(size int) *Journal {
	if size <= 0 {
		size = 1
	}
	return &Journal{buf: make([]models.Evaluation, size)}
}

// Record stores a copy of e, overwriting the oldest entry when full.
func (j *Journal) Record(e models.Evaluation) {
	e.Signals = append([]models.StrategySignal(nil), e.Signals...)
	if e.Decision != nil {
		d := *e.Decision
		e.Decision = &d
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.buf[j.next] = e
	j.next = (j.next + 1) % len(j.buf)
	if j.next == 0 {
		j.full = true
	}
	j.total++
}

// Recent returns up to limit evaluations, newest first. decision filters on
// "buy", "sell", "none" (no decision) or "any"/"" for everything.
func (j *Journal) Recent(limit int, decision string) []models.Evaluation {
	if limit <= 0 {
		return nil
	}
	j.mu.RLock()
	defer j.mu.RUnlock()

	n := j.lenLocked()
	out := make([]models.Evaluation, 0, min(limit, n))
	for i := 0; i < n && len(out) < limit; i++ {
		idx := (j.next - 1 - i + len(j.buf)) % len(j.buf)
		e := j.buf[idx]
		if !matchDecision(e, decision) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Last returns the newest evaluation.
func (j *Journal) Last() (models.Evaluation, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.lenLocked() == 0 {
		return models.Evaluation{}, false
	}
	return j.buf[(j.next-1+len(j.buf))%len(j.buf)], true
}

// Total counts every evaluation ever recorded.
func (j *Journal) Total() uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.total
}

func (j *Journal) lenLocked() int {
	if j.full {
		return len(j.buf)
	}
	return j.next
}

func matchDecision(e models.Evaluation, decision string) bool {
	switch decision {
	case "", "any":
		return true
	case "none":
		return e.Decision == nil
	default:
		return e.Decision != nil && string(e.Decision.Direction) == decision
	}
}
