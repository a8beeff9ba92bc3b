package cache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/observability"
)

func TestNew(t *testing.T) {
	mr, cleanup := setupMiniRedis(t)
	defer cleanup()

	tests := []struct {
		name    string
		cfg     *config.CacheProviderConfig
		want    interface{}
		wantErr error
	}{
		{name: "nil config", cfg: nil, wantErr: ErrInvalidConfig},
		{name: "default type is memory", cfg: &config.CacheProviderConfig{}, want: &memoryCache{}},
		{name: "memory", cfg: &config.CacheProviderConfig{Type: config.CacheTypeMemory}, want: &memoryCache{}},
		{name: "redis", cfg: redisProviderConfig(mr), want: &redisCache{}},
		{name: "disabled", cfg: &config.CacheProviderConfig{Type: config.CacheTypeDisabled}, want: disabledCache{}},
		{name: "unknown", cfg: &config.CacheProviderConfig{Type: "memcached"}, wantErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New("p", tt.cfg, observability.NopLogger())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer c.Close()
			assert.IsType(t, tt.want, c)
		})
	}
}

func TestDisabled(t *testing.T) {
	c := Disabled()
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheDisabled)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, time.Second), ErrCacheDisabled)
	assert.ErrorIs(t, c.Delete(ctx, "k"), ErrCacheDisabled)
	_, err = c.Exists(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheDisabled)
	assert.NoError(t, c.Close())
}

func TestCacheStats_HitRate(t *testing.T) {
	assert.Equal(t, 0.0, CacheStats{}.HitRate())
	assert.InDelta(t, 75.0, CacheStats{Hits: 3, Misses: 1}.HitRate(), 0.001)
}

func TestCacheMetrics_Register(t *testing.T) {
	m := GetCacheMetrics()
	assert.Same(t, m, GetCacheMetrics())

	m.Init()
	registry := prometheus.NewRegistry()
	assert.NotPanics(t, func() { m.MustRegister(registry) })

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "actions_cache_hits_total")
}
