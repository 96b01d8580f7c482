package ports

import (
	"context"
	"time"
)

// CounterStore is the atomic key-value surface behind the rate limiter.
// The limiting policy (ceiling, window) lives in internal/ratelimit; the
// store only provides increment-with-expiry semantics.
type CounterStore interface {
	// Get returns the current value of key, or 0 when it does not exist.
	Get(ctx context.Context, key string) (int64, error)

	// Incr atomically increments key and returns the new value, creating
	// the counter at 1 when absent.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets the time-to-live for key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
