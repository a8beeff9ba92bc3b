package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/vyrodovalexey/avactions/internal/config"
)

// JitterFactor adds up to 25% to each backoff.
const JitterFactor = 0.25

// Policy is an exponential backoff schedule. The zero value runs once.
type Policy struct {
	// Retries is the number of attempts after the first one.
	Retries int
	Initial time.Duration
	Max     time.Duration
}

// FromConfig builds the policy for a Redis provider. Unset fields take the
// configured defaults.
func FromConfig(cfg *config.RedisRetryConfig) Policy {
	return Policy{
		Retries: cfg.GetMaxRetries(),
		Initial: cfg.GetInitialBackoff().Duration(),
		Max:     cfg.GetMaxBackoff().Duration(),
	}
}

// Func is an operation that can be retried.
type Func func(ctx context.Context) error

// Hooks customise a Do call. Both fields are optional.
type Hooks struct {
	// Retryable reports whether err is worth another attempt. Nil retries
	// every error.
	Retryable func(err error) bool

	// OnRetry is called before sleeping for the next attempt.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// Do runs fn until it succeeds, returns a non-retryable error, the retries
// are exhausted or ctx is done. The last error is returned.
func (p Policy) Do(ctx context.Context, fn Func, h Hooks) error {
	var err error
	for attempt := 0; ; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.Retries || (h.Retryable != nil && !h.Retryable(err)) {
			return err
		}

		backoff := p.Backoff(attempt)
		if h.OnRetry != nil {
			h.OnRetry(attempt+1, err, backoff)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Backoff returns the delay before retry attempt+1: Initial doubled per
// attempt plus jitter, capped at Max when Max is set.
func (p Policy) Backoff(attempt int) time.Duration {
	d := float64(p.Initial) * math.Pow(2, float64(attempt))

	//nolint:gosec // G404: jitter for retry timing is not security-sensitive
	d += d * JitterFactor * rand.Float64()

	if p.Max > 0 && d > float64(p.Max) {
		d = float64(p.Max)
	}
	return time.Duration(d)
}
