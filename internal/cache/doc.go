// Package cache provides the response cache providers used by routes.
//
// A provider stores opaque byte values under string keys with a TTL:
//
//	Get(ctx, key) -> value | ErrCacheMiss
//	Set(ctx, key, value, ttl)
//	Delete(ctx, key)
//
// Two backends exist: an in-process LRU ("memory") and Redis ("redis").
// Redis is the one to use when several worker processes share a cache.
// Any provider can be wrapped in a circuit breaker so that a failing
// backend degrades into misses instead of slowing every dispatch.
//
// Keys follow the convention <namespace>_<prefix>_<hash>, see Key.
package cache
