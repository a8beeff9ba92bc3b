package config

import (
	"gopkg.in/yaml.v3"
)

// Segment types.
const (
	SegmentTypeFixed   = "fixed"
	SegmentTypeString  = "string"
	SegmentTypeNumeric = "numeric"
)

// Parameter sources.
const (
	ParameterSourceQuery = "query"
	ParameterSourceBody  = "body"
	ParameterSourceFile  = "file"
)

// RouteConfig declares one route.
type RouteConfig struct {
	// Name identifies the route. A later route with the same name replaces
	// an earlier one and keeps its position.
	Name string `yaml:"name" json:"name"`

	// Handler is the token looked up in the handler registry at dispatch time.
	Handler string `yaml:"handler" json:"handler"`

	Segments   []SegmentConfig   `yaml:"segments,omitempty" json:"segments,omitempty"`
	Parameters []ParameterConfig `yaml:"parameters,omitempty" json:"parameters,omitempty"`

	// CSRF marks the route as requiring a valid token.
	CSRF bool `yaml:"csrf,omitempty" json:"csrf,omitempty"`

	// CacheKeys are extra name=value inputs of the cache key. A value of the
	// form "header:<Name>" is read from the request header at dispatch time.
	CacheKeys []CacheKeyConfig `yaml:"cacheKeys,omitempty" json:"cacheKeys,omitempty"`

	Cache      *RouteCacheConfig `yaml:"cache,omitempty" json:"cache,omitempty"`
	BruteForce *BruteForceConfig `yaml:"bruteForce,omitempty" json:"bruteForce,omitempty"`

	// Timeout is the cooperative execution budget of the handler.
	Timeout Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// SegmentConfig declares one path segment. A plain scalar is shorthand for a
// fixed segment with that literal.
type SegmentConfig struct {
	Type    string   `yaml:"type,omitempty" json:"type,omitempty"`
	Value   string   `yaml:"value,omitempty" json:"value,omitempty"`
	Name    string   `yaml:"name,omitempty" json:"name,omitempty"`
	Rules   []string `yaml:"rules,omitempty" json:"rules,omitempty"`
	Filters []string `yaml:"filters,omitempty" json:"filters,omitempty"`
}

// segmentConfigFields avoids recursion in UnmarshalYAML.
type segmentConfigFields SegmentConfig

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *SegmentConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = SegmentConfig{Type: SegmentTypeFixed, Value: node.Value}
		return nil
	}
	var fields segmentConfigFields
	if err := node.Decode(&fields); err != nil {
		return err
	}
	*s = SegmentConfig(fields)
	if s.Type == "" {
		if s.Name != "" {
			s.Type = SegmentTypeString
		} else {
			s.Type = SegmentTypeFixed
		}
	}
	return nil
}

// ParameterConfig declares one request parameter.
type ParameterConfig struct {
	Name    string   `yaml:"name" json:"name"`
	Source  string   `yaml:"source,omitempty" json:"source,omitempty"`
	Rules   []string `yaml:"rules,omitempty" json:"rules,omitempty"`
	Filters []string `yaml:"filters,omitempty" json:"filters,omitempty"`

	// File holds upload rules when Source is "file".
	File *FileRulesConfig `yaml:"file,omitempty" json:"file,omitempty"`
}

// GetSource returns the effective source, defaulting to query.
func (p *ParameterConfig) GetSource() string {
	if p.Source == "" {
		return ParameterSourceQuery
	}
	return p.Source
}

// FileRulesConfig declares upload restrictions for a file parameter.
type FileRulesConfig struct {
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	MimeTypes  []string `yaml:"mimeTypes,omitempty" json:"mimeTypes,omitempty"`
	MinSize    int64    `yaml:"minSize,omitempty" json:"minSize,omitempty"`
	MaxSize    int64    `yaml:"maxSize,omitempty" json:"maxSize,omitempty"`

	// Image requires a decodable image and re-encodes it.
	Image bool `yaml:"image,omitempty" json:"image,omitempty"`
}

// CacheKeyConfig is one additional cache key input.
type CacheKeyConfig struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// RouteCacheConfig is the cache policy of a route.
type RouteCacheConfig struct {
	// Provider names an entry of spec.cache.providers.
	Provider string `yaml:"provider" json:"provider"`

	// KeyPrefix defaults to the route name.
	KeyPrefix string `yaml:"keyPrefix,omitempty" json:"keyPrefix,omitempty"`

	TTL Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// BruteForceConfig is the brute-force throttle policy of a route.
type BruteForceConfig struct {
	Min Duration `yaml:"min" json:"min"`
	Max Duration `yaml:"max" json:"max"`
}
