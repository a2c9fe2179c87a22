package cache

import (
	"context"
	"time"
)

// CacheService defines the behavior for caching mechanisms.
// Values are opaque bytes so the same callers work against memory and Redis.
type CacheService interface {
	// Get retrieves a value from the cache.
	// Returns value, true if found; nil, false if not found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set adds a value to the cache with a duration
	Set(ctx context.Context, key string, value []byte, duration time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error
}
