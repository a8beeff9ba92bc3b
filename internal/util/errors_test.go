package util

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		field          string
		message        string
		cause          error
		expectedString string
	}{
		{
			name:           "with field",
			field:          "spec.routes[0].name",
			message:        "name is required",
			expectedString: "config error at spec.routes[0].name: name is required",
		},
		{
			name:           "without field",
			message:        "invalid configuration",
			expectedString: "config error: invalid configuration",
		},
		{
			name:           "with cause",
			field:          "spec.cache",
			message:        "invalid provider",
			cause:          errors.New("unknown type"),
			expectedString: "config error at spec.cache: invalid provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var err *ConfigError
			if tt.cause != nil {
				err = NewConfigErrorWithCause(tt.field, tt.message, tt.cause)
			} else {
				err = NewConfigError(tt.field, tt.message)
			}

			assert.Equal(t, tt.expectedString, err.Error())
			assert.Equal(t, tt.cause, err.Unwrap())
			assert.True(t, errors.Is(err, ErrConfigInvalid))
			assert.True(t, errors.Is(err, &ConfigError{}))
		})
	}
}

func TestRouteNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		uri      string
		attempts []Attempt
		expected string
	}{
		{
			name:     "no attempts",
			uri:      "/unknown/path",
			expected: "no route found for /unknown/path",
		},
		{
			name: "with attempts",
			uri:  "/blog/x",
			attempts: []Attempt{
				{Route: "blog_show", Stage: StageSecurity, Reason: "slug"},
				{Route: "page", Stage: StageIdentity},
			},
			expected: "no route found for /blog/x (tried: blog_show/security: slug, page/identity)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := NewRouteNotFoundError(tt.uri, tt.attempts)
			assert.Equal(t, tt.expected, err.Error())
			assert.True(t, errors.Is(err, ErrNotFound))
			assert.True(t, errors.Is(fmt.Errorf("dispatch: %w", err), ErrNotFound))
			assert.False(t, errors.Is(err, ErrTimeout))

			var target *RouteNotFoundError
			assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &target))
			assert.Equal(t, tt.uri, target.URI)
		})
	}
}

func TestHandlerMissingError(t *testing.T) {
	t.Parallel()

	err := NewHandlerMissingError("home", "pages.home")
	assert.Equal(t, `route home: handler "pages.home" not registered`, err.Error())
	assert.True(t, errors.Is(err, ErrHandlerMissing))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()

	err := NewTimeoutError("handler", 2*time.Second)
	assert.Equal(t, "timeout after 2s during handler", err.Error())
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Nil(t, err.Unwrap())
}

func TestCircuitOpenError(t *testing.T) {
	t.Parallel()

	err := NewCircuitOpenError("cache-redis", "open")
	assert.Equal(t, "circuit breaker cache-redis is open", err.Error())
	assert.True(t, errors.Is(err, ErrCircuitOpen))
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, WrapError(nil, "context"))

	base := errors.New("boom")
	wrapped := WrapError(base, "loading routes")
	assert.Equal(t, "loading routes: boom", wrapped.Error())
	assert.True(t, errors.Is(wrapped, base))
}
