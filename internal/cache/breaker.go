package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/observability"
	"github.com/vyrodovalexey/avactions/internal/util"
)

// Breaker guards a provider with a circuit breaker. While open, reads
// report a miss and writes fail fast, so routes keep working uncached.
type Breaker struct {
	name   string
	next   Cache
	cb     *gobreaker.CircuitBreaker
	logger observability.Logger
}

// NewBreaker wraps next with a circuit breaker configured from cfg.
func NewBreaker(name string, next Cache, cfg *config.CircuitBreakerConfig, logger observability.Logger) *Breaker {
	if logger == nil {
		logger = observability.NopLogger()
	}

	b := &Breaker{
		name:   name,
		next:   next,
		logger: logger,
	}

	threshold := safeIntToUint32(cfg.GetThreshold())
	halfOpen := uint32(1)
	if cfg != nil && cfg.HalfOpenRequests > 0 {
		halfOpen = safeIntToUint32(cfg.HalfOpenRequests)
	}

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cache/" + name,
		MaxRequests: halfOpen,
		Timeout:     cfg.GetTimeout().Duration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			b.logger.Warn("cache circuit breaker state change",
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
			GetCacheMetrics().breakerState.WithLabelValues(b.name).Set(float64(to))
		},
	})

	return b
}

// safeIntToUint32 safely converts int to uint32.
func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) openError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return util.NewCircuitOpenError(b.name, b.cb.State().String())
	}
	return err
}

// Get retrieves a value. An open breaker reports ErrCacheMiss.
func (b *Breaker) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Get(ctx, key)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return v.([]byte), nil
}

// Set stores a value.
func (b *Breaker) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Set(ctx, key, value, ttl)
	})
	return b.openError(err)
}

// Delete removes a value.
func (b *Breaker) Delete(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Delete(ctx, key)
	})
	return b.openError(err)
}

// Exists checks if a key exists.
func (b *Breaker) Exists(ctx context.Context, key string) (bool, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Exists(ctx, key)
	})
	if err != nil {
		return false, b.openError(err)
	}
	return v.(bool), nil
}

// Close closes the wrapped provider.
func (b *Breaker) Close() error {
	return b.next.Close()
}

// Stats forwards statistics when the wrapped provider keeps them.
func (b *Breaker) Stats() CacheStats {
	if s, ok := b.next.(CacheWithStats); ok {
		return s.Stats()
	}
	return CacheStats{}
}
