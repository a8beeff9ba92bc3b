package config

import (
	"fmt"
	"strings"

	"github.com/vyrodovalexey/avactions/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Is reports ValidationErrors as an invalid configuration.
func (e ValidationErrors) Is(target error) bool {
	return target == util.ErrConfigInvalid
}

// Validator validates actions configuration.
type Validator struct {
	errors   ValidationErrors
	warnings []string
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates an actions configuration.
func ValidateConfig(cfg *ActionsConfig) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(cfg *ActionsConfig) error {
	v.errors = make(ValidationErrors, 0)
	v.warnings = nil

	if cfg == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateRoot(cfg)
	v.validateSpec(&cfg.Spec)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

// Warnings returns non-fatal findings of the last Validate call.
func (v *Validator) Warnings() []string {
	return v.warnings
}

func (v *Validator) validateRoot(cfg *ActionsConfig) {
	if cfg.APIVersion == "" {
		v.addError("apiVersion", "apiVersion is required")
	} else if !strings.HasPrefix(cfg.APIVersion, APIVersionPrefix) {
		v.addError("apiVersion", "apiVersion must start with '"+APIVersionPrefix+"'")
	}

	if cfg.Kind == "" {
		v.addError("kind", "kind is required")
	} else if cfg.Kind != KindActions {
		v.addError("kind", "kind must be '"+KindActions+"'")
	}

	if cfg.Metadata.Name == "" {
		v.addError("metadata.name", "name is required")
	}
}

func (v *Validator) validateSpec(spec *ActionsSpec) {
	if spec.Logging != nil {
		v.validateLogging(spec.Logging, "spec.logging")
	}
	if spec.Tracing != nil {
		v.validateTracing(spec.Tracing, "spec.tracing")
	}
	if spec.Server != nil && spec.Server.MaxBodySize < 0 {
		v.addError("spec.server.maxBodySize", "must not be negative")
	}
	if spec.Cache != nil {
		v.validateCache(spec.Cache, "spec.cache")
	}
	if spec.Security != nil {
		v.validateSecurity(spec.Security, "spec.security")
	}
	v.validateRoutes(spec.Routes, spec.Cache)
}

func (v *Validator) validateLogging(cfg *LoggingConfig, path string) {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		v.addError(path+".level", fmt.Sprintf("unknown log level %q", cfg.Level))
	}
	switch cfg.Format {
	case "", "json", "console":
	default:
		v.addError(path+".format", fmt.Sprintf("unknown log format %q", cfg.Format))
	}
}

func (v *Validator) validateTracing(cfg *TracingConfig, path string) {
	if cfg.SamplingRate < 0 || cfg.SamplingRate > 1 {
		v.addError(path+".samplingRate", "must be between 0 and 1")
	}
	if cfg.Enabled && cfg.OTLPEndpoint == "" {
		v.addError(path+".otlpEndpoint", "otlpEndpoint is required when tracing is enabled")
	}
}

func (v *Validator) validateCache(cfg *CacheConfig, path string) {
	if strings.Contains(cfg.Namespace, "_") {
		v.addWarning(path + ".namespace contains '_', the key separator")
	}
	for name, p := range cfg.Providers {
		ppath := fmt.Sprintf("%s.providers.%s", path, name)
		if err := util.ValidateIdentifier(name); err != nil {
			v.addError(ppath, err.Error())
		}
		if p.TTL < 0 {
			v.addError(ppath+".ttl", "ttl must not be negative")
		}
		switch p.Type {
		case CacheTypeMemory, "":
			if p.MaxEntries < 0 {
				v.addError(ppath+".maxEntries", "maxEntries must not be negative")
			}
		case CacheTypeRedis:
			if p.Redis == nil || p.Redis.URL == "" {
				v.addError(ppath+".redis.url", "url is required for redis provider")
			} else if p.Redis.TTLJitter < 0 || p.Redis.TTLJitter > 1 {
				v.addError(ppath+".redis.ttlJitter", "must be between 0 and 1")
			}
		case CacheTypeDisabled:
		default:
			v.addError(ppath+".type", fmt.Sprintf("unknown cache type %q", p.Type))
		}
		if p.CircuitBreaker != nil && p.CircuitBreaker.Threshold < 0 {
			v.addError(ppath+".circuitBreaker.threshold", "must not be negative")
		}
	}
}

func (v *Validator) validateSecurity(cfg *SecurityConfig, path string) {
	if cfg.CSRF != nil {
		if cfg.CSRF.TokenTTL < 0 {
			v.addError(path+".csrf.tokenTTL", "must not be negative")
		}
		if cfg.CSRF.HeaderName != "" {
			if err := util.ValidateHeaderName(cfg.CSRF.HeaderName); err != nil {
				v.addError(path+".csrf.headerName", err.Error())
			}
		}
	}
	if cfg.Upload != nil && cfg.Upload.MaxSize < 0 {
		v.addError(path+".upload.maxSize", "must not be negative")
	}
}

func (v *Validator) validateRoutes(routes []RouteConfig, cache *CacheConfig) {
	seen := make(map[string]int, len(routes))
	for i := range routes {
		path := fmt.Sprintf("spec.routes[%d]", i)
		route := &routes[i]

		if err := util.ValidateIdentifier(route.Name); err != nil {
			v.addError(path+".name", err.Error())
		} else if prev, dup := seen[route.Name]; dup {
			v.addWarning(fmt.Sprintf("%s.name %q overrides spec.routes[%d]", path, route.Name, prev))
		}
		seen[route.Name] = i

		if err := util.ValidateNonEmpty(route.Handler, "handler"); err != nil {
			v.addError(path+".handler", err.Error())
		}
		if route.Timeout < 0 {
			v.addError(path+".timeout", "timeout must not be negative")
		}

		names := make(map[string]string)
		v.validateSegments(route.Segments, path, names)
		v.validateParameters(route.Parameters, path, names)
		v.validateCacheKeys(route.CacheKeys, path)

		if route.Cache != nil {
			v.validateRouteCache(route.Cache, path+".cache", cache)
		}
		if bf := route.BruteForce; bf != nil {
			if bf.Min < 0 || bf.Max < 0 {
				v.addError(path+".bruteForce", "durations must not be negative")
			} else if bf.Min > bf.Max {
				v.addError(path+".bruteForce", "min must not exceed max")
			}
		}
	}
}

func (v *Validator) validateSegments(segments []SegmentConfig, path string, names map[string]string) {
	for j, seg := range segments {
		spath := fmt.Sprintf("%s.segments[%d]", path, j)
		switch seg.Type {
		case SegmentTypeFixed:
			if seg.Value == "" {
				v.addError(spath+".value", "fixed segment requires a literal")
			}
			if strings.Contains(seg.Value, "/") {
				v.addError(spath+".value", "literal must not contain '/'")
			}
		case SegmentTypeString, SegmentTypeNumeric:
			if err := util.ValidateIdentifier(seg.Name); err != nil {
				v.addError(spath+".name", "variable segment requires a name: "+err.Error())
				continue
			}
			v.claimName(names, seg.Name, spath)
		default:
			v.addError(spath+".type", fmt.Sprintf("unknown segment type %q", seg.Type))
		}
		v.validateRules(seg.Rules, spath+".rules")
	}
}

func (v *Validator) validateParameters(params []ParameterConfig, path string, names map[string]string) {
	for j := range params {
		p := &params[j]
		ppath := fmt.Sprintf("%s.parameters[%d]", path, j)
		if err := util.ValidateIdentifier(p.Name); err != nil {
			v.addError(ppath+".name", err.Error())
		} else {
			v.claimName(names, p.Name, ppath)
		}

		switch p.GetSource() {
		case ParameterSourceQuery, ParameterSourceBody:
			if p.File != nil {
				v.addError(ppath+".file", "file rules require source 'file'")
			}
		case ParameterSourceFile:
			if p.File != nil {
				if p.File.MinSize < 0 || p.File.MaxSize < 0 {
					v.addError(ppath+".file", "sizes must not be negative")
				} else if p.File.MaxSize > 0 && p.File.MinSize > p.File.MaxSize {
					v.addError(ppath+".file", "minSize must not exceed maxSize")
				}
			}
		default:
			v.addError(ppath+".source", fmt.Sprintf("unknown parameter source %q", p.Source))
		}
		v.validateRules(p.Rules, ppath+".rules")
	}
}

func (v *Validator) validateCacheKeys(keys []CacheKeyConfig, path string) {
	for j, k := range keys {
		kpath := fmt.Sprintf("%s.cacheKeys[%d]", path, j)
		if err := util.ValidateNonEmpty(k.Name, "name"); err != nil {
			v.addError(kpath+".name", err.Error())
		}
		if header, ok := strings.CutPrefix(k.Value, "header:"); ok {
			if err := util.ValidateHeaderName(header); err != nil {
				v.addError(kpath+".value", err.Error())
			}
		}
	}
}

func (v *Validator) validateRouteCache(rc *RouteCacheConfig, path string, cache *CacheConfig) {
	if rc.TTL < 0 {
		v.addError(path+".ttl", "ttl must not be negative")
	}
	if rc.Provider == "" {
		v.addError(path+".provider", "provider is required")
		return
	}
	if cache == nil {
		v.addError(path+".provider", fmt.Sprintf("unknown cache provider %q", rc.Provider))
		return
	}
	if _, ok := cache.Providers[rc.Provider]; !ok {
		v.addError(path+".provider", fmt.Sprintf("unknown cache provider %q", rc.Provider))
	}
}

// validateRules checks what can be checked without the rule registry.
func (v *Validator) validateRules(rules []string, path string) {
	for k, rule := range rules {
		if pattern, ok := strings.CutPrefix(rule, "regex:"); ok {
			if err := util.ValidateRegex(pattern); err != nil {
				v.addError(fmt.Sprintf("%s[%d]", path, k), err.Error())
			}
		}
		if strings.TrimSpace(rule) == "" {
			v.addError(fmt.Sprintf("%s[%d]", path, k), "rule must not be empty")
		}
	}
}

func (v *Validator) claimName(names map[string]string, name, path string) {
	if prev, dup := names[name]; dup {
		v.addError(path+".name", fmt.Sprintf("duplicate name %q (first declared at %s)", name, prev))
		return
	}
	names[name] = path
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) addWarning(message string) {
	v.warnings = append(v.warnings, message)
}
