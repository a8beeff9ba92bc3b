package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/observability"
	"github.com/vyrodovalexey/avactions/internal/util"
)

var errBackend = errors.New("backend down")

// failingCache fails every call while down is set.
type failingCache struct {
	down  bool
	calls int
	inner *memoryCache
}

func (f *failingCache) Get(ctx context.Context, key string) ([]byte, error) {
	f.calls++
	if f.down {
		return nil, errBackend
	}
	return f.inner.Get(ctx, key)
}

func (f *failingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.calls++
	if f.down {
		return errBackend
	}
	return f.inner.Set(ctx, key, value, ttl)
}

func (f *failingCache) Delete(ctx context.Context, key string) error {
	f.calls++
	if f.down {
		return errBackend
	}
	return f.inner.Delete(ctx, key)
}

func (f *failingCache) Exists(ctx context.Context, key string) (bool, error) {
	f.calls++
	if f.down {
		return false, errBackend
	}
	return f.inner.Exists(ctx, key)
}

func (f *failingCache) Close() error { return f.inner.Close() }

func newTestBreaker(t *testing.T, threshold int) (*Breaker, *failingCache) {
	t.Helper()
	fc := &failingCache{inner: newTestMemoryCache(t, 10, time.Minute)}
	b := NewBreaker("test", fc, &config.CircuitBreakerConfig{
		Enabled:   true,
		Threshold: threshold,
		Timeout:   config.Duration(time.Hour),
	}, observability.NopLogger())
	return b, fc
}

func TestBreaker_PassThrough(t *testing.T) {
	b, _ := newTestBreaker(t, 2)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", []byte("v"), 0))
	v, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	ok, err := b.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.Delete(ctx, "k"))
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_MissesDoNotTrip(t *testing.T) {
	b, _ := newTestBreaker(t, 2)

	for i := 0; i < 5; i++ {
		_, err := b.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrCacheMiss)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, fc := newTestBreaker(t, 2)
	ctx := context.Background()
	fc.down = true

	_, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, errBackend)
	_, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, errBackend)

	assert.Equal(t, gobreaker.StateOpen, b.State())

	calls := fc.calls
	_, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	err = b.Set(ctx, "k", []byte("v"), 0)
	assert.ErrorIs(t, err, util.ErrCircuitOpen)

	_, err = b.Exists(ctx, "k")
	assert.ErrorIs(t, err, util.ErrCircuitOpen)

	assert.Equal(t, calls, fc.calls, "open breaker must not reach the backend")
}

func TestNew_WrapsBreaker(t *testing.T) {
	c, err := New("mem", &config.CacheProviderConfig{
		Type:           config.CacheTypeMemory,
		CircuitBreaker: &config.CircuitBreakerConfig{Enabled: true},
	}, nil)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.(*Breaker)
	assert.True(t, ok)
	_, ok = c.(CacheWithStats)
	assert.True(t, ok)
}
