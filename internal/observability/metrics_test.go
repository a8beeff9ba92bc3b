package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics("actions_test")
	m.SetBuildInfo("1.2.3", "abc")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `actions_test_build_info{commit="abc",version="1.2.3"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
