// Package util provides shared helpers for the actions engine.
//
// # Context Helpers
//
// Context utilities for dispatch-scoped data:
//
//	ctx = util.ContextWithRequestID(ctx, "req-123")
//	requestID := util.RequestIDFromContext(ctx)
//
// # Error Types
//
// Structured error types for consistent error handling:
//
//   - ConfigError: configuration errors
//   - RouteNotFoundError: no candidate route produced a result
//   - HandlerMissingError: a route names a handler nobody registered
//   - Common sentinel errors: ErrNotFound, ErrTimeout, etc.
//
// # Validation
//
// Small validators used by the configuration layer:
//
//	err := util.ValidateIdentifier("blog_show")
//	err := util.ValidateHeaderName("X-Custom-Header")
package util
