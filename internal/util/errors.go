// Package util provides utility functions and types for the actions engine.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrNotFound.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., ConfigError, RouteNotFoundError). Each type
//     implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
//
// All custom error types must implement:
//
//	Error() string           – human-readable message
//	Unwrap() error           – if the type wraps another error
//	Is(target error) bool    – for errors.Is() compatibility
package util

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common sentinel errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTimeout          = errors.New("timeout")
	ErrCircuitOpen      = errors.New("circuit breaker open")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrHandlerMissing   = errors.New("handler not registered")
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// Attempt stages recorded while walking candidate routes.
const (
	StageIdentity = "identity"
	StageSecurity = "security"
	StageHandler  = "handler"
)

// Attempt records why one candidate route did not produce a result.
type Attempt struct {
	Route  string
	Stage  string
	Reason string
}

// String renders the attempt as route/stage: reason.
func (a Attempt) String() string {
	if a.Reason == "" {
		return a.Route + "/" + a.Stage
	}
	return a.Route + "/" + a.Stage + ": " + a.Reason
}

// ConfigError represents a configuration-related error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// RouteNotFoundError is returned when no registered route accepted the URI.
// Attempts lists every candidate that was tried, in the order tried.
type RouteNotFoundError struct {
	URI      string
	Attempts []Attempt
}

// Error implements the error interface.
func (e *RouteNotFoundError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("no route found for %s", e.URI)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.String())
	}
	return fmt.Sprintf("no route found for %s (tried: %s)", e.URI, strings.Join(parts, ", "))
}

// Is checks if the error matches the target.
func (e *RouteNotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	_, ok := target.(*RouteNotFoundError)
	return ok
}

// NewRouteNotFoundError creates a new RouteNotFoundError.
func NewRouteNotFoundError(uri string, attempts []Attempt) *RouteNotFoundError {
	return &RouteNotFoundError{URI: uri, Attempts: attempts}
}

// HandlerMissingError reports a route whose handler token resolves to nothing.
type HandlerMissingError struct {
	Route   string
	Handler string
}

// Error implements the error interface.
func (e *HandlerMissingError) Error() string {
	return fmt.Sprintf("route %s: handler %q not registered", e.Route, e.Handler)
}

// Is checks if the error matches the target.
func (e *HandlerMissingError) Is(target error) bool {
	if target == ErrHandlerMissing {
		return true
	}
	_, ok := target.(*HandlerMissingError)
	return ok
}

// NewHandlerMissingError creates a new HandlerMissingError.
func NewHandlerMissingError(route, handler string) *HandlerMissingError {
	return &HandlerMissingError{Route: route, Handler: handler}
}

// TimeoutError represents a timeout error.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
	Cause     error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %v during %s", e.Duration, e.Operation)
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if target == ErrTimeout {
		return true
	}
	_, ok := target.(*TimeoutError)
	return ok || errors.Is(e.Cause, target)
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration}
}

// CircuitOpenError represents a circuit breaker open error.
type CircuitOpenError struct {
	Name  string
	State string
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %s is %s", e.Name, e.State)
}

// Is checks if the error matches the target.
func (e *CircuitOpenError) Is(target error) bool {
	if target == ErrCircuitOpen {
		return true
	}
	_, ok := target.(*CircuitOpenError)
	return ok
}

// NewCircuitOpenError creates a new CircuitOpenError.
func NewCircuitOpenError(name, state string) *CircuitOpenError {
	return &CircuitOpenError{Name: name, State: state}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
