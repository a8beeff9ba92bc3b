package router

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avactions/internal/cache"
	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/observability"
	"github.com/vyrodovalexey/avactions/internal/security"
)

func newTestGuard(t *testing.T) *security.Guard {
	t.Helper()
	g, err := security.NewGuard(&config.SecurityConfig{
		CSRF: &config.CSRFConfig{Secret: "test-secret", TokenTTL: config.Duration(time.Hour)},
	}, observability.NopLogger())
	require.NoError(t, err)
	return g
}

func newTestCaches(t *testing.T) *cache.Providers {
	t.Helper()
	c, err := cache.New("pages", &config.CacheProviderConfig{Type: config.CacheTypeMemory}, nil)
	require.NoError(t, err)
	p := cache.NewProvidersFrom("test", map[string]cache.Cache{"pages": c})
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// counter is a handler that records its calls and returns a fixed outcome.
type counter struct {
	mu      sync.Mutex
	calls   int
	outcome Outcome
	body    string
	log     *[]string
	name    string
}

func (c *counter) Handle(_ context.Context, req *Request) Outcome {
	c.mu.Lock()
	c.calls++
	if c.log != nil {
		*c.log = append(*c.log, c.name)
	}
	c.mu.Unlock()
	if c.body != "" {
		_, _ = req.Response.WriteString(c.body)
	}
	return c.outcome
}

func (c *counter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// sleepRecorder captures brute-force delays instead of sleeping.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func newTestRouter(t *testing.T, registry *HandlerRegistry, opts ...Option) *Router {
	t.Helper()
	base := []Option{
		WithCaches(newTestCaches(t)),
		WithIDGenerator(func() string { return "req-1" }),
	}
	return New(registry, newTestGuard(t), append(base, opts...)...)
}
