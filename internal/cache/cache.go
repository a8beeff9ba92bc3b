package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/observability"
)

// Common cache errors.
var (
	// ErrCacheMiss indicates that the key was not found in the cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheDisabled indicates that caching is disabled.
	ErrCacheDisabled = errors.New("cache disabled")

	// ErrInvalidConfig indicates that the cache configuration is invalid.
	ErrInvalidConfig = errors.New("invalid cache configuration")

	// ErrConnectionFailed indicates that the cache connection failed.
	ErrConnectionFailed = errors.New("cache connection failed")
)

// Cache is the provider contract consumed by routes.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with the given TTL.
	// A TTL of 0 uses the provider default; a negative TTL never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases the provider's resources.
	Close() error
}

// CacheWithStats extends Cache with statistics.
type CacheWithStats interface {
	Cache

	// Stats returns cache statistics.
	Stats() CacheStats
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Hits   int64
	Misses int64
	Size   int64
}

// HitRate returns the cache hit rate as a percentage.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// New creates the provider described by cfg. The name labels logs, spans
// and the circuit breaker.
func New(name string, cfg *config.CacheProviderConfig, logger observability.Logger) (Cache, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}

	if logger == nil {
		logger = observability.NopLogger()
	}
	logger = logger.With(observability.String("provider", name))

	var (
		c   Cache
		err error
	)
	switch cfg.Type {
	case config.CacheTypeMemory, "":
		c = newMemoryCache(name, cfg.MaxEntries, cfg.TTL.Duration(), logger)
	case config.CacheTypeRedis:
		c, err = newRedisCache(name, cfg, logger)
	case config.CacheTypeDisabled:
		logger.Info("cache provider disabled")
		return Disabled(), nil
	default:
		return nil, fmt.Errorf("%w: unknown cache type %q", ErrInvalidConfig, cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CircuitBreaker != nil && cfg.CircuitBreaker.Enabled {
		c = NewBreaker(name, c, cfg.CircuitBreaker, logger)
	}
	return c, nil
}

// disabledCache is a cache that always returns ErrCacheDisabled.
type disabledCache struct{}

// Disabled returns a provider that stores nothing.
func Disabled() Cache {
	return disabledCache{}
}

func (disabledCache) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, ErrCacheDisabled
}

func (disabledCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return ErrCacheDisabled
}

func (disabledCache) Delete(_ context.Context, _ string) error {
	return ErrCacheDisabled
}

func (disabledCache) Exists(_ context.Context, _ string) (bool, error) {
	return false, ErrCacheDisabled
}

func (disabledCache) Close() error {
	return nil
}
