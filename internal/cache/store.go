package cache

import (
	"context"
	"time"
)

// Store is the counter and key-value store behind request rate limiting.
// MemoryStore serves single-process deployments; DatabaseStore persists
// counters in the cache_entries table so limits survive restarts.
type Store interface {
	// IncrementWithTTL bumps the counter for key inside a fixed window and
	// returns the new count plus the time left before the window resets.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)

	// Set stores value under key until ttl elapses. A zero ttl keeps the
	// entry until it is deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value for key and whether a live entry was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Delete removes the given keys, ignoring ones that do not exist.
	Delete(ctx context.Context, keys ...string) error
}
