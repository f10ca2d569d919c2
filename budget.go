package tether

import (
	"context"
	"time"
)

// budget is the retry countdown for one episode: the attempts remaining and
// the fixed delay between attempts. A fresh budget is allocated for every
// episode; attempts consumed in one episode never carry over to the next.
type budget struct {
	attempts  int
	remaining int
	interval  time.Duration
}

func newBudget(attempts int, interval time.Duration) *budget {
	return &budget{
		attempts:  attempts,
		remaining: attempts,
		interval:  interval,
	}
}

// fail records a failed attempt and returns the attempts remaining.
// The count never goes negative. A return value below 1 means the budget
// is exhausted and the episode is terminal.
func (b *budget) fail() int {
	if b.remaining > 0 {
		b.remaining--
	}
	return b.remaining
}

// wait blocks for the fixed retry interval, or until the context is
// canceled, whichever comes first.
func (b *budget) wait(ctx context.Context) error {
	if b.interval <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(b.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
