package router

import (
	"context"
	"math/rand/v2"
	"time"
)

// BruteForcePolicy delays NotProductive outcomes by a random duration in
// [Min, Max] to slow down automated guessing.
type BruteForcePolicy struct {
	Min time.Duration
	Max time.Duration
}

// Delay draws a duration uniformly from [Min, Max].
func (p BruteForcePolicy) Delay() time.Duration {
	lo, hi := p.Min, p.Max
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return lo
	}
	//nolint:gosec // G404: throttle jitter does not need cryptographic randomness
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration)

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
