package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a single limiter check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long the caller should wait. Zero when allowed.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	AllowN(ctx context.Context, key string, n int) (*Result, error)
	Reset(ctx context.Context, key string) error
}

// Store keeps per-key counters.
type Store interface {
	// IncrementAndGet adds incr to the counter for key, opening a new window
	// of the given length when none is active, and returns the new count and
	// the time left in the window.
	IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (current int64, ttl time.Duration, err error)

	// Delete drops the counter for key.
	Delete(ctx context.Context, key string) error
}
