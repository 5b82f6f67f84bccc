package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// FixedWindow allows Limit requests per key within each Window.
type FixedWindow struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// FixedWindowOption configures a FixedWindow.
type FixedWindowOption func(*FixedWindow)

// WithClock overrides the clock used to compute ResetAt.
func WithClock(now func() time.Time) FixedWindowOption {
	return func(fw *FixedWindow) {
		if now != nil {
			fw.now = now
		}
	}
}

// NewFixedWindow creates a limiter on top of store.
func NewFixedWindow(store Store, limit int, window time.Duration, opts ...FixedWindowOption) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidWindow, window)
	}

	fw := &FixedWindow{store: store, limit: limit, window: window, now: time.Now}
	for _, opt := range opts {
		opt(fw)
	}
	return fw, nil
}

func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	return fw.AllowN(ctx, key, 1)
}

// AllowN counts n requests against key. Denied requests still count, so a
// client hammering the endpoint stays blocked until the window closes.
func (fw *FixedWindow) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, n)
	}

	current, ttl, err := fw.store.IncrementAndGet(ctx, key, n, fw.window)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: increment %q: %w", key, err)
	}
	if ttl <= 0 {
		ttl = fw.window
	}

	remaining := max(int64(fw.limit)-current, 0)
	return &Result{
		Allowed:   current <= int64(fw.limit),
		Limit:     fw.limit,
		Remaining: int(remaining),
		ResetAt:   fw.now().Add(ttl),
	}, nil
}

func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return fw.store.Delete(ctx, key)
}
