// Package retry runs an operation again with exponential backoff.
//
// The Redis cache provider wraps every command in a Policy so that a
// transient network error does not immediately turn into a cache miss.
//
//	err := retry.FromConfig(cfg.Redis.Retry).Do(ctx, func(ctx context.Context) error {
//	    return client.Get(ctx, key).Err()
//	}, retry.Hooks{Retryable: isTransient})
package retry
