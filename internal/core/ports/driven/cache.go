package driven

import (
	"context"
	"time"
)

// KVCache is a key-value cache with expiry. It backs the embedding
// cache, the answer cache and the fixed-window rate limiter.
//
// Callers must treat it as best-effort: a cache failure never makes
// the underlying operation fail, it only loses the shortcut.
type KVCache interface {
	// Get retrieves a value. Returns domain.ErrNotFound on a miss.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Incr atomically increments a counter, creating it at 1.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets a key's TTL.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
