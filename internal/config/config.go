package config

// Config kind and API version accepted by the loader.
const (
	APIVersionPrefix  = "actions.avactions.io/"
	DefaultAPIVersion = APIVersionPrefix + "v1"
	KindActions       = "Actions"
)

// ActionsConfig is the root configuration document.
type ActionsConfig struct {
	APIVersion string      `yaml:"apiVersion" json:"apiVersion"`
	Kind       string      `yaml:"kind" json:"kind"`
	Metadata   Metadata    `yaml:"metadata" json:"metadata"`
	Spec       ActionsSpec `yaml:"spec" json:"spec"`
}

// Metadata identifies a configuration document.
type Metadata struct {
	Name   string            `yaml:"name" json:"name"`
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// ActionsSpec holds every configurable section.
type ActionsSpec struct {
	Logging  *LoggingConfig  `yaml:"logging,omitempty" json:"logging,omitempty"`
	Tracing  *TracingConfig  `yaml:"tracing,omitempty" json:"tracing,omitempty"`
	Server   *ServerConfig   `yaml:"server,omitempty" json:"server,omitempty"`
	Cache    *CacheConfig    `yaml:"cache,omitempty" json:"cache,omitempty"`
	Security *SecurityConfig `yaml:"security,omitempty" json:"security,omitempty"`
	Site     *SiteConfig     `yaml:"site,omitempty" json:"site,omitempty"`

	// Routes are registered in list order.
	Routes []RouteConfig `yaml:"routes,omitempty" json:"routes,omitempty"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Address         string   `yaml:"address,omitempty" json:"address,omitempty"`
	ReadTimeout     Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout    Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	IdleTimeout     Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`

	// MaxBodySize limits request bodies including multipart uploads, in bytes.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty" json:"maxBodySize,omitempty"`

	// MetricsPath exposes Prometheus metrics when non-empty.
	MetricsPath string `yaml:"metricsPath,omitempty" json:"metricsPath,omitempty"`

	Headers *HeadersConfig `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// HeadersConfig lists the security headers added to every HTTP response.
// An empty value omits the header.
type HeadersConfig struct {
	XFrameOptions         string `yaml:"xFrameOptions,omitempty" json:"xFrameOptions,omitempty"`
	XContentTypeOptions   string `yaml:"xContentTypeOptions,omitempty" json:"xContentTypeOptions,omitempty"`
	ReferrerPolicy        string `yaml:"referrerPolicy,omitempty" json:"referrerPolicy,omitempty"`
	ContentSecurityPolicy string `yaml:"contentSecurityPolicy,omitempty" json:"contentSecurityPolicy,omitempty"`

	// HSTSMaxAge is sent as Strict-Transport-Security on TLS requests only.
	HSTSMaxAge Duration `yaml:"hstsMaxAge,omitempty" json:"hstsMaxAge,omitempty"`

	Custom map[string]string `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// SiteConfig configures the bundled demo handlers.
type SiteConfig struct {
	Title string     `yaml:"title,omitempty" json:"title,omitempty"`
	Users []SiteUser `yaml:"users,omitempty" json:"users,omitempty"`
}

// SiteUser is a demo login credential.
type SiteUser struct {
	Name     string `yaml:"name" json:"name"`
	Password string `yaml:"password" json:"password"`
}

// DefaultConfig returns a configuration with defaults applied and no routes.
func DefaultConfig() *ActionsConfig {
	cfg := &ActionsConfig{
		APIVersion: DefaultAPIVersion,
		Kind:       KindActions,
		Metadata:   Metadata{Name: "actions"},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset sections and fields with default values.
func (c *ActionsConfig) ApplyDefaults() {
	s := &c.Spec

	if s.Logging == nil {
		s.Logging = &LoggingConfig{}
	}
	if s.Logging.Level == "" {
		s.Logging.Level = DefaultLogLevel
	}
	if s.Logging.Format == "" {
		s.Logging.Format = DefaultLogFormat
	}
	if s.Logging.Output == "" {
		s.Logging.Output = DefaultLogOutput
	}

	if s.Tracing == nil {
		s.Tracing = &TracingConfig{}
	}
	if s.Tracing.ServiceName == "" {
		s.Tracing.ServiceName = DefaultServiceName
	}

	if s.Server == nil {
		s.Server = &ServerConfig{}
	}
	if s.Server.Address == "" {
		s.Server.Address = DefaultServerAddress
	}
	if s.Server.ReadTimeout == 0 {
		s.Server.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if s.Server.WriteTimeout == 0 {
		s.Server.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if s.Server.IdleTimeout == 0 {
		s.Server.IdleTimeout = Duration(DefaultIdleTimeout)
	}
	if s.Server.ShutdownTimeout == 0 {
		s.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if s.Server.MaxBodySize == 0 {
		s.Server.MaxBodySize = DefaultMaxBodySize
	}
	if s.Server.Headers == nil {
		s.Server.Headers = &HeadersConfig{
			XFrameOptions:       DefaultXFrameOptions,
			XContentTypeOptions: DefaultXContentTypeOptions,
			ReferrerPolicy:      DefaultReferrerPolicy,
		}
	}

	if s.Cache == nil {
		s.Cache = &CacheConfig{}
	}
	if s.Cache.Namespace == "" {
		s.Cache.Namespace = c.Metadata.Name
	}

	if s.Security == nil {
		s.Security = &SecurityConfig{}
	}
	s.Security.applyDefaults()

	if s.Site == nil {
		s.Site = &SiteConfig{}
	}
}
