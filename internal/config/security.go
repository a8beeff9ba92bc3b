package config

// SecurityConfig configures the security collaborator.
type SecurityConfig struct {
	CSRF   *CSRFConfig   `yaml:"csrf,omitempty" json:"csrf,omitempty"`
	Upload *UploadConfig `yaml:"upload,omitempty" json:"upload,omitempty"`

	// BlockXSS rejects values that carry script payloads instead of only sanitizing them.
	BlockXSS bool `yaml:"blockXSS,omitempty" json:"blockXSS,omitempty"`
}

// CSRFConfig configures token issuing and verification.
type CSRFConfig struct {
	// Secret signs tokens. An empty secret makes the process generate one at start.
	Secret string `yaml:"secret,omitempty" json:"secret,omitempty"`

	// FieldName is the body/query parameter carrying the token.
	FieldName string `yaml:"fieldName,omitempty" json:"fieldName,omitempty"`

	// HeaderName is the request header carrying the token.
	HeaderName string `yaml:"headerName,omitempty" json:"headerName,omitempty"`

	TokenTTL Duration `yaml:"tokenTTL,omitempty" json:"tokenTTL,omitempty"`

	// AllowedOrigins restricts the Origin (or Referer) of protected requests.
	// Empty means any origin.
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" json:"allowedOrigins,omitempty"`
}

// UploadConfig holds defaults for file parameters.
type UploadConfig struct {
	MaxSize           int64    `yaml:"maxSize,omitempty" json:"maxSize,omitempty"`
	AllowedExtensions []string `yaml:"allowedExtensions,omitempty" json:"allowedExtensions,omitempty"`
	AllowedMimeTypes  []string `yaml:"allowedMimeTypes,omitempty" json:"allowedMimeTypes,omitempty"`
}

func (s *SecurityConfig) applyDefaults() {
	if s.CSRF == nil {
		s.CSRF = &CSRFConfig{}
	}
	if s.CSRF.FieldName == "" {
		s.CSRF.FieldName = DefaultCSRFFieldName
	}
	if s.CSRF.HeaderName == "" {
		s.CSRF.HeaderName = DefaultCSRFHeaderName
	}
	if s.CSRF.TokenTTL == 0 {
		s.CSRF.TokenTTL = Duration(DefaultCSRFTokenTTL)
	}

	if s.Upload == nil {
		s.Upload = &UploadConfig{}
	}
	if s.Upload.MaxSize == 0 {
		s.Upload.MaxSize = DefaultUploadMaxSize
	}
}
