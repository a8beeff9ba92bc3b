package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
apiVersion: actions.avactions.io/v1
kind: Actions
metadata:
  name: demo
spec:
  cache:
    providers:
      local:
        type: memory
        maxEntries: 100
  routes:
    - name: home
      handler: pages.home
    - name: blog_show
      handler: blog.show
      segments:
        - blog
        - {type: numeric, name: postId}
      cache:
        provider: local
        ttl: 300
    - name: page
      handler: pages.show
      segments:
        - name: slug
          rules: [slug]
          filters: [striptags]
      parameters:
        - name: lang
        - name: avatar
          source: file
          file:
            extensions: [png, jpg]
            image: true
      bruteForce:
        min: 1s
        max: 3s
      timeout: 2s
`

func TestLoader_LoadFromReader(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader().LoadFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "actions.avactions.io/v1", cfg.APIVersion)
	assert.Equal(t, KindActions, cfg.Kind)
	assert.Equal(t, "demo", cfg.Metadata.Name)
	require.Len(t, cfg.Spec.Routes, 3)

	names := []string{cfg.Spec.Routes[0].Name, cfg.Spec.Routes[1].Name, cfg.Spec.Routes[2].Name}
	assert.Equal(t, []string{"home", "blog_show", "page"}, names)

	blog := cfg.Spec.Routes[1]
	require.Len(t, blog.Segments, 2)
	assert.Equal(t, SegmentConfig{Type: SegmentTypeFixed, Value: "blog"}, blog.Segments[0])
	assert.Equal(t, SegmentTypeNumeric, blog.Segments[1].Type)
	assert.Equal(t, "postId", blog.Segments[1].Name)
	require.NotNil(t, blog.Cache)
	assert.Equal(t, 300*time.Second, blog.Cache.TTL.Duration())

	page := cfg.Spec.Routes[2]
	assert.Equal(t, SegmentTypeString, page.Segments[0].Type)
	assert.Equal(t, []string{"slug"}, page.Segments[0].Rules)
	assert.Equal(t, ParameterSourceQuery, page.Parameters[0].GetSource())
	assert.Equal(t, ParameterSourceFile, page.Parameters[1].GetSource())
	require.NotNil(t, page.Parameters[1].File)
	assert.True(t, page.Parameters[1].File.Image)
	assert.Equal(t, time.Second, page.BruteForce.Min.Duration())
	assert.Equal(t, 3*time.Second, page.BruteForce.Max.Duration())
	assert.Equal(t, 2*time.Second, page.Timeout.Duration())

	// defaults
	assert.Equal(t, "demo", cfg.Spec.Cache.Namespace)
	assert.Equal(t, DefaultCSRFFieldName, cfg.Spec.Security.CSRF.FieldName)
	assert.Equal(t, DefaultServerAddress, cfg.Spec.Server.Address)
	assert.Equal(t, DefaultLogLevel, cfg.Spec.Logging.Level)

	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "actions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Spec.Routes, 3)
}

func TestLoader_Load_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().Load("/nonexistent/path/actions.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoader_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadConfigFromReader(strings.NewReader("spec: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoader_SubstituteEnvVars(t *testing.T) {
	t.Parallel()

	env := map[string]string{"CSRF_SECRET": "s3cret", "EMPTY": ""}
	l := &Loader{lookupEnv: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "set", input: "secret: ${CSRF_SECRET}", expected: "secret: s3cret"},
		{name: "default used", input: "url: ${REDIS_URL:-redis://localhost:6379}", expected: "url: redis://localhost:6379"},
		{name: "set but empty", input: "v: ${EMPTY:-x}", expected: "v: "},
		{name: "missing without default", input: "v: ${MISSING}", expected: "v: "},
		{name: "escaped dollar", input: "price: $$5", expected: "price: $5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, l.substituteEnvVars(tt.input))
		})
	}
}
