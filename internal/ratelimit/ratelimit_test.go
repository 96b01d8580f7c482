package ratelimit

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytgrab/internal/observability"
)

func testLogger() observability.Logger {
	provider := observability.NewProvider(&observability.Config{
		ServiceName: "test",
		LogOutput:   io.Discard,
	})
	return provider.Logger("ratelimit")
}

func TestAllowUpToCeiling(t *testing.T) {
	limiter := New(NewMemoryStore(), 2, 24*time.Hour, testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAllowIsPerClient(t *testing.T) {
	limiter := New(NewMemoryStore(), 1, 24*time.Hour, testLogger())
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed, "a different client has its own counter")

	allowed, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAllowResetsAtUTCMidnight(t *testing.T) {
	store := NewMemoryStore()
	limiter := New(store, 1, 24*time.Hour, testLogger())
	ctx := context.Background()

	day1 := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	limiter.now = func() time.Time { return day1 }
	store.now = limiter.now

	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Two minutes later it is a new calendar day and a fresh counter.
	day2 := day1.Add(2 * time.Minute)
	limiter.now = func() time.Time { return day2 }
	store.now = limiter.now

	allowed, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRejectedRequestDoesNotIncrement(t *testing.T) {
	store := NewMemoryStore()
	limiter := New(store, 1, 24*time.Hour, testLogger())
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)

	// Repeated rejections leave the counter where the ceiling found it.
	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, allowed)
	}

	key := "downloads:10.0.0.1:" + time.Now().UTC().Format("2006-01-02")
	count, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	current := base
	store.now = func() time.Time { return current }

	_, err := store.Incr(ctx, "key")
	require.NoError(t, err)
	require.NoError(t, store.Expire(ctx, "key", time.Hour))

	count, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	current = base.Add(2 * time.Hour)
	count, err = store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Zero(t, count)
}
