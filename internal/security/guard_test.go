package security

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/observability"
)

func newTestGuard(t *testing.T, cfg *config.SecurityConfig) *Guard {
	t.Helper()
	g, err := NewGuard(cfg, observability.NopLogger())
	require.NoError(t, err)
	return g
}

func TestGuard_CheckValue_CollectsAll(t *testing.T) {
	g := newTestGuard(t, nil)

	res := g.CheckValue("hello world!", MustParseRules("slug", "maxLength:5"))
	assert.False(t, res.OK)
	assert.Len(t, res.Violations, 2)
}

func TestGuard_CheckValue_SQLi(t *testing.T) {
	g := newTestGuard(t, nil)
	rules := MustParseRules("sqli")

	assert.True(t, g.CheckValue("hello world", rules).OK)

	res := g.CheckValue("1' OR '1'='1", rules)
	assert.False(t, res.OK)
	assert.Contains(t, res.Violations, "possible SQL injection")
}

func TestGuard_CheckValue_BlockXSS(t *testing.T) {
	payload := "<script>alert(1)</script>"

	lenient := newTestGuard(t, &config.SecurityConfig{})
	assert.True(t, lenient.CheckValue(payload, nil).OK)

	strict := newTestGuard(t, &config.SecurityConfig{BlockXSS: true})
	res := strict.CheckValue(payload, nil)
	assert.False(t, res.OK)
	assert.Equal(t, []string{"possible script injection"}, res.Violations)

	assert.False(t, lenient.CheckValue(payload, MustParseRules("xss")).OK)
}

func TestGuard_FilterValue(t *testing.T) {
	g := newTestGuard(t, nil)

	tests := []struct {
		name    string
		in      string
		filters []Filter
		want    string
	}{
		{name: "no filters", in: " A ", want: " A "},
		{name: "xss removes script", in: "<script>alert(1)</script>hi", filters: []Filter{FilterXSS}, want: "hi"},
		{name: "xss keeps plain text", in: "O'Brien & sons", filters: []Filter{FilterXSS}, want: "O'Brien & sons"},
		{name: "xss decodes hidden markup", in: "&lt;script&gt;x&lt;/script&gt;ok", filters: []Filter{FilterXSS}, want: "ok"},
		{name: "striptags", in: "<b>bold</b> text", filters: []Filter{FilterStripTags}, want: "bold text"},
		{name: "chain", in: "  <i>Hello</i> ", filters: []Filter{FilterStripTags, FilterTrim, FilterLower}, want: "hello"},
		{name: "upper", in: "abc", filters: []Filter{FilterUpper}, want: "ABC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.FilterValue(tt.in, tt.filters))
		})
	}
}

func TestParseFilters(t *testing.T) {
	f, err := ParseFilters("xss", " trim ")
	require.NoError(t, err)
	assert.Equal(t, []Filter{FilterXSS, FilterTrim}, f)

	_, err = ParseFilters("rot13")
	assert.Error(t, err)
}

func TestGuard_CSRF(t *testing.T) {
	g := newTestGuard(t, &config.SecurityConfig{
		CSRF: &config.CSRFConfig{Secret: "s3cret", TokenTTL: config.Duration(time.Hour)},
	})
	token := g.IssueCSRFToken()
	assert.Equal(t, config.DefaultCSRFFieldName, g.CSRFFieldName())
	assert.Equal(t, time.Hour, g.CSRFTokenTTL())

	t.Run("body", func(t *testing.T) {
		assert.True(t, g.CheckRequestCsrf(CSRFRequest{Body: url.Values{"csrf_token": {token}}}))
	})
	t.Run("query", func(t *testing.T) {
		assert.True(t, g.CheckRequestCsrf(CSRFRequest{Query: url.Values{"csrf_token": {token}}}))
	})
	t.Run("header", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-CSRF-Token", token)
		assert.True(t, g.CheckRequestCsrf(CSRFRequest{Header: h}))
	})
	t.Run("missing", func(t *testing.T) {
		assert.False(t, g.CheckRequestCsrf(CSRFRequest{}))
	})
	t.Run("foreign secret", func(t *testing.T) {
		other := newTestGuard(t, &config.SecurityConfig{CSRF: &config.CSRFConfig{Secret: "other"}})
		assert.False(t, g.CheckRequestCsrf(CSRFRequest{Query: url.Values{"csrf_token": {other.IssueCSRFToken()}}}))
	})
}

func TestCSRFProtector_VerifyToken(t *testing.T) {
	c, err := newCSRFProtector("k", "csrf_token", "X-CSRF-Token", time.Minute, nil)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	token := c.issue()

	assert.NoError(t, c.verifyToken(token))
	assert.ErrorIs(t, c.verifyToken(""), ErrCSRFMissing)
	assert.ErrorIs(t, c.verifyToken("!!"), ErrCSRFMalformed)
	assert.ErrorIs(t, c.verifyToken("bm9kb3Q"), ErrCSRFMalformed)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, c.verifyToken(token), ErrCSRFExpired)
}

func TestCSRFProtector_Origin(t *testing.T) {
	c, err := newCSRFProtector("k", "csrf_token", "X-CSRF-Token", time.Minute, []string{"https://example.com/"})
	require.NoError(t, err)
	token := c.issue()

	h := http.Header{}
	h.Set("Origin", "https://example.com")
	assert.NoError(t, c.verify(CSRFRequest{Header: h, Body: url.Values{"csrf_token": {token}}}))

	h = http.Header{}
	h.Set("Referer", "https://example.com/form?x=1")
	assert.NoError(t, c.verify(CSRFRequest{Header: h, Body: url.Values{"csrf_token": {token}}}))

	h = http.Header{}
	h.Set("Origin", "https://evil.example")
	assert.ErrorIs(t, c.verify(CSRFRequest{Header: h, Body: url.Values{"csrf_token": {token}}}), ErrCSRFOrigin)

	assert.ErrorIs(t, c.verify(CSRFRequest{Body: url.Values{"csrf_token": {token}}}), ErrCSRFOrigin)
}

func TestSecurityMetrics_Register(t *testing.T) {
	m := GetSecurityMetrics()
	m.Init()

	registry := prometheus.NewRegistry()
	assert.NotPanics(t, func() { m.MustRegister(registry) })
}
