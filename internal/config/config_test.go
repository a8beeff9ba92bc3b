package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultAPIVersion, cfg.APIVersion)
	assert.Equal(t, KindActions, cfg.Kind)
	assert.Empty(t, cfg.Spec.Routes)

	require.NotNil(t, cfg.Spec.Logging)
	assert.Equal(t, DefaultLogLevel, cfg.Spec.Logging.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Spec.Logging.Format)
	assert.Equal(t, DefaultLogOutput, cfg.Spec.Logging.Output)

	require.NotNil(t, cfg.Spec.Tracing)
	assert.Equal(t, DefaultServiceName, cfg.Spec.Tracing.ServiceName)

	require.NotNil(t, cfg.Spec.Server)
	assert.Equal(t, DefaultServerAddress, cfg.Spec.Server.Address)
	assert.Equal(t, DefaultReadTimeout, cfg.Spec.Server.ReadTimeout.Duration())
	assert.Equal(t, int64(DefaultMaxBodySize), cfg.Spec.Server.MaxBodySize)
	require.NotNil(t, cfg.Spec.Server.Headers)
	assert.Equal(t, "DENY", cfg.Spec.Server.Headers.XFrameOptions)
	assert.Equal(t, "nosniff", cfg.Spec.Server.Headers.XContentTypeOptions)

	require.NotNil(t, cfg.Spec.Security)
	require.NotNil(t, cfg.Spec.Security.CSRF)
	assert.Equal(t, DefaultCSRFFieldName, cfg.Spec.Security.CSRF.FieldName)
	assert.Equal(t, DefaultCSRFHeaderName, cfg.Spec.Security.CSRF.HeaderName)
	assert.Equal(t, 2*time.Hour, cfg.Spec.Security.CSRF.TokenTTL.Duration())
	require.NotNil(t, cfg.Spec.Security.Upload)
	assert.Equal(t, int64(DefaultUploadMaxSize), cfg.Spec.Security.Upload.MaxSize)

	require.NotNil(t, cfg.Spec.Site)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &ActionsConfig{
		Metadata: Metadata{Name: "shop"},
		Spec: ActionsSpec{
			Server: &ServerConfig{
				Address: ":9090",
				Headers: &HeadersConfig{XFrameOptions: "SAMEORIGIN"},
			},
			Security: &SecurityConfig{
				CSRF: &CSRFConfig{FieldName: "token"},
			},
		},
	}

	cfg.ApplyDefaults()

	assert.Equal(t, ":9090", cfg.Spec.Server.Address)
	assert.Equal(t, "SAMEORIGIN", cfg.Spec.Server.Headers.XFrameOptions)
	assert.Empty(t, cfg.Spec.Server.Headers.ReferrerPolicy)
	assert.Equal(t, "token", cfg.Spec.Security.CSRF.FieldName)
	assert.Equal(t, DefaultCSRFHeaderName, cfg.Spec.Security.CSRF.HeaderName)
	assert.Equal(t, "shop", cfg.Spec.Cache.Namespace)
}
