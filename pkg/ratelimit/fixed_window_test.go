package ratelimit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innerbloom/billing/pkg/ratelimit"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNewFixedWindow_Validation(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))

	_, err := ratelimit.NewFixedWindow(nil, 1, time.Second)
	assert.ErrorIs(t, err, ratelimit.ErrStoreRequired)

	_, err = ratelimit.NewFixedWindow(store, 0, time.Second)
	assert.ErrorIs(t, err, ratelimit.ErrInvalidLimit)

	_, err = ratelimit.NewFixedWindow(store, 1, 0)
	assert.ErrorIs(t, err, ratelimit.ErrInvalidWindow)
}

func TestFixedWindow_MemoryStore(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0), ratelimit.WithStoreClock(clock.Now))
	t.Cleanup(store.Close)

	limiter, err := ratelimit.NewFixedWindow(store, 3, time.Minute, ratelimit.WithClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	for i := range 3 {
		res, err := limiter.Allow(ctx, "user:1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := limiter.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, time.Minute, res.RetryAfter(clock.Now()))

	other, err := limiter.Allow(ctx, "user:2")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")

	clock.Advance(time.Minute)
	res, err = limiter.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "a new window opens after expiry")
	assert.Equal(t, 2, res.Remaining)
}

func TestFixedWindow_ResetAndArguments(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
	limiter, err := ratelimit.NewFixedWindow(store, 1, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = limiter.Allow(ctx, "")
	assert.ErrorIs(t, err, ratelimit.ErrKeyRequired)

	_, err = limiter.AllowN(ctx, "k", 0)
	assert.ErrorIs(t, err, ratelimit.ErrInvalidCount)

	res, err := limiter.AllowN(ctx, "k", 2)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	require.NoError(t, limiter.Reset(ctx, "k"))
	res, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryStore_CleanupAndContext(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(5 * time.Millisecond))
	t.Cleanup(store.Close)

	_, _, err := store.IncrementAndGet(context.Background(), "short", 1, time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = store.IncrementAndGet(ctx, "k", 1, time.Second)
	assert.True(t, errors.Is(err, context.Canceled))

	store.Close()
	store.Close()
}

func TestFixedWindow_RedisStore(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := ratelimit.NewRedisStore(client, "test")
	limiter, err := ratelimit.NewFixedWindow(store, 2, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
	assert.True(t, srv.Exists("test:ratelimit:ip:1.2.3.4"))
	assert.Equal(t, time.Minute, srv.TTL("test:ratelimit:ip:1.2.3.4"))

	res, err = limiter.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	srv.FastForward(time.Minute)
	res, err = limiter.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	require.NoError(t, limiter.Reset(ctx, "ip:1.2.3.4"))
	assert.False(t, srv.Exists("test:ratelimit:ip:1.2.3.4"))
}
