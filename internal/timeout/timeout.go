// Package timeout provides the cooperative execution budget given to handlers.
//
// A budget never interrupts a handler. It only sets a context deadline that
// well-behaved handlers and the I/O they perform observe.
package timeout

import (
	"context"
	"errors"
	"time"
)

// Budget is the execution allowance of one handler invocation.
// The zero value is unlimited.
type Budget struct {
	limit time.Duration
}

// NewBudget returns a budget of d. Non-positive durations mean unlimited.
func NewBudget(d time.Duration) Budget {
	if d < 0 {
		d = 0
	}
	return Budget{limit: d}
}

// Limit returns the configured duration, zero when unlimited.
func (b Budget) Limit() time.Duration {
	return b.limit
}

// Unlimited reports whether the budget sets no deadline.
func (b Budget) Unlimited() bool {
	return b.limit <= 0
}

// Context returns a context that expires when the budget is spent.
// An existing earlier deadline on ctx is kept.
func (b Budget) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.Unlimited() {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.limit)
}

// Exceeded reports whether ctx ended because its deadline passed.
func Exceeded(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// Remaining returns the time left before the deadline of ctx.
// ok is false when ctx has no deadline.
func Remaining(ctx context.Context) (remaining time.Duration, ok bool) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}
	remaining = time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}
