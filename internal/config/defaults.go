package config

import "time"

// Default values applied by ApplyDefaults.
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultLogOutput   = "stdout"
	DefaultServiceName = "avactions"

	DefaultServerAddress   = ":8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodySize     = 10 << 20

	DefaultXFrameOptions       = "DENY"
	DefaultXContentTypeOptions = "nosniff"
	DefaultReferrerPolicy      = "strict-origin-when-cross-origin"

	DefaultMemoryMaxEntries = 10000

	DefaultRetryMaxRetries     = 3
	DefaultRetryInitialBackoff = 100 * time.Millisecond
	DefaultRetryMaxBackoff     = 2 * time.Second

	DefaultBreakerThreshold = 5
	DefaultBreakerTimeout   = 30 * time.Second

	DefaultCSRFFieldName  = "csrf_token"
	DefaultCSRFHeaderName = "X-CSRF-Token"
	DefaultCSRFTokenTTL   = 2 * time.Hour

	DefaultUploadMaxSize = 5 << 20
)
