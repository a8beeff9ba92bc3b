package cache

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/observability"
)

// Providers holds the named cache providers and the key namespace.
type Providers struct {
	namespace string
	caches    map[string]Cache
}

// NewProviders builds every provider declared in cfg. Providers already
// built are closed when a later one fails.
func NewProviders(cfg *config.CacheConfig, logger observability.Logger) (*Providers, error) {
	if cfg == nil {
		return NewProvidersFrom("", nil), nil
	}

	p := NewProvidersFrom(cfg.Namespace, nil)
	for _, name := range sortedNames(cfg.Providers) {
		pc := cfg.Providers[name]
		c, err := New(name, &pc, logger)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("cache provider %s: %w", name, err)
		}
		p.caches[name] = c
	}
	return p, nil
}

// NewProvidersFrom wraps already constructed providers.
func NewProvidersFrom(namespace string, caches map[string]Cache) *Providers {
	p := &Providers{namespace: namespace, caches: make(map[string]Cache, len(caches))}
	for name, c := range caches {
		p.caches[name] = c
	}
	return p
}

// Namespace returns the first component of every key.
func (p *Providers) Namespace() string {
	return p.namespace
}

// Get returns the provider registered under name.
func (p *Providers) Get(name string) (Cache, bool) {
	c, ok := p.caches[name]
	return c, ok
}

// Names returns the provider names in sorted order.
func (p *Providers) Names() []string {
	return sortedNames(p.caches)
}

// Stats returns the statistics of every provider that keeps them.
func (p *Providers) Stats() map[string]CacheStats {
	out := make(map[string]CacheStats, len(p.caches))
	for name, c := range p.caches {
		if s, ok := c.(CacheWithStats); ok {
			out[name] = s.Stats()
		}
	}
	return out
}

// Close closes every provider.
func (p *Providers) Close() error {
	var errs []error
	for _, name := range p.Names() {
		if err := p.caches[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
