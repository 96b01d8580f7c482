// Package ratelimit enforces a per-client sliding daily download quota over
// an increment-with-expiry counter store.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"ytgrab/internal/observability"
	"ytgrab/internal/ports"
)

// Limiter applies the daily ceiling policy. The counter key is
// (client, UTC calendar day); its expiry is set only on the first increment
// of the day so the counter self-resets, and a client never seen on a given
// day has no counter at all.
type Limiter struct {
	store   ports.CounterStore
	ceiling int
	window  time.Duration
	logger  observability.Logger
	now     func() time.Time
}

// New creates a limiter with the given ceiling and window.
func New(store ports.CounterStore, ceiling int, window time.Duration, logger observability.Logger) *Limiter {
	return &Limiter{
		store:   store,
		ceiling: ceiling,
		window:  window,
		logger:  logger,
		now:     time.Now,
	}
}

// Allow reports whether clientID may start another download today. A
// rejected request does not increment the counter.
func (l *Limiter) Allow(ctx context.Context, clientID string) (bool, error) {
	key := fmt.Sprintf("downloads:%s:%s", clientID, l.now().UTC().Format("2006-01-02"))

	count, err := l.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("rate limit lookup: %w", err)
	}
	if count >= int64(l.ceiling) {
		l.logger.Info("rate limit reached", "client", clientID, "count", count)
		return false, nil
	}

	newCount, err := l.store.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("rate limit increment: %w", err)
	}
	if newCount == 1 {
		if err := l.store.Expire(ctx, key, l.window); err != nil {
			return false, fmt.Errorf("rate limit expiry: %w", err)
		}
	}
	return true, nil
}
