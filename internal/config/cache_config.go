package config

// Cache provider types.
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
	// CacheTypeDisabled accepts route references but stores nothing.
	CacheTypeDisabled = "disabled"
)

// CacheConfig declares the named cache providers routes can reference.
type CacheConfig struct {
	// Namespace is the first component of every stored key.
	// Defaults to metadata.name.
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`

	// Providers maps provider names to their configuration.
	Providers map[string]CacheProviderConfig `yaml:"providers,omitempty" json:"providers,omitempty"`
}

// CacheProviderConfig configures one cache provider.
type CacheProviderConfig struct {
	// Type is the provider backend: "memory" or "redis".
	Type string `yaml:"type" json:"type"`

	// TTL is applied when a route does not set its own.
	TTL Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`

	// MaxEntries bounds the memory provider.
	MaxEntries int `yaml:"maxEntries,omitempty" json:"maxEntries,omitempty"`

	Redis          *RedisCacheConfig     `yaml:"redis,omitempty" json:"redis,omitempty"`
	CircuitBreaker *CircuitBreakerConfig `yaml:"circuitBreaker,omitempty" json:"circuitBreaker,omitempty"`
}

// RedisCacheConfig contains Redis-specific cache configuration.
type RedisCacheConfig struct {
	// URL is the Redis connection URL.
	// Format: redis://[user:password@]host:port[/db]
	URL string `yaml:"url" json:"url"`

	PoolSize       int      `yaml:"poolSize,omitempty" json:"poolSize,omitempty"`
	ConnectTimeout Duration `yaml:"connectTimeout,omitempty" json:"connectTimeout,omitempty"`
	ReadTimeout    Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout   Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`

	// KeyPrefix is prepended to every key written to Redis.
	KeyPrefix string `yaml:"keyPrefix,omitempty" json:"keyPrefix,omitempty"`

	// TTLJitter is the maximum fraction of jitter applied to TTLs (0.0 to 1.0).
	TTLJitter float64 `yaml:"ttlJitter,omitempty" json:"ttlJitter,omitempty"`

	Retry *RedisRetryConfig `yaml:"retry,omitempty" json:"retry,omitempty"`
}

// RedisRetryConfig contains retry configuration for Redis operations.
type RedisRetryConfig struct {
	MaxRetries     int      `yaml:"maxRetries,omitempty" json:"maxRetries,omitempty"`
	InitialBackoff Duration `yaml:"initialBackoff,omitempty" json:"initialBackoff,omitempty"`
	MaxBackoff     Duration `yaml:"maxBackoff,omitempty" json:"maxBackoff,omitempty"`
}

// GetMaxRetries returns the effective max retries.
func (c *RedisRetryConfig) GetMaxRetries() int {
	if c == nil || c.MaxRetries <= 0 {
		return DefaultRetryMaxRetries
	}
	return c.MaxRetries
}

// GetInitialBackoff returns the effective initial backoff.
func (c *RedisRetryConfig) GetInitialBackoff() Duration {
	if c == nil || c.InitialBackoff <= 0 {
		return Duration(DefaultRetryInitialBackoff)
	}
	return c.InitialBackoff
}

// GetMaxBackoff returns the effective max backoff.
func (c *RedisRetryConfig) GetMaxBackoff() Duration {
	if c == nil || c.MaxBackoff <= 0 {
		return Duration(DefaultRetryMaxBackoff)
	}
	return c.MaxBackoff
}

// CircuitBreakerConfig guards a cache provider.
type CircuitBreakerConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold int `yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// Timeout is how long the breaker stays open.
	Timeout Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// HalfOpenRequests is the number of trial requests allowed when half-open.
	HalfOpenRequests int `yaml:"halfOpenRequests,omitempty" json:"halfOpenRequests,omitempty"`
}

// GetThreshold returns the effective failure threshold.
func (c *CircuitBreakerConfig) GetThreshold() int {
	if c == nil || c.Threshold <= 0 {
		return DefaultBreakerThreshold
	}
	return c.Threshold
}

// GetTimeout returns the effective open-state timeout.
func (c *CircuitBreakerConfig) GetTimeout() Duration {
	if c == nil || c.Timeout <= 0 {
		return Duration(DefaultBreakerTimeout)
	}
	return c.Timeout
}
