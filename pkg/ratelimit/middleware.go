package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/innerbloom/billing/pkg/logger"
)

// LimitHandler writes the response for a rejected request.
type LimitHandler func(w http.ResponseWriter, r *http.Request, result *Result)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	onLimitReached LimitHandler
	skip           func(*http.Request) bool
	logger         *slog.Logger
	now            func() time.Time
}

// WithOnLimitReached replaces the default plain-text 429 response.
func WithOnLimitReached(fn LimitHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onLimitReached = fn
		}
	}
}

// WithSkip bypasses limiting for matching requests.
func WithSkip(fn func(*http.Request) bool) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skip = fn
	}
}

// WithLogger logs store failures.
func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Middleware enforces limiter per key. It fails open on store errors.
func Middleware(limiter Limiter, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if limiter == nil {
		panic("ratelimit.Middleware: limiter is required")
	}
	if keyFunc == nil {
		panic("ratelimit.Middleware: keyFunc is required")
	}

	cfg := &middlewareConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	cfg.onLimitReached = func(w http.ResponseWriter, _ *http.Request, _ *Result) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skip != nil && cfg.skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), key)
			if err != nil {
				cfg.logger.WarnContext(r.Context(), "rate limiter unavailable, allowing request",
					slog.String("key", key),
					logger.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retry := int(result.RetryAfter(cfg.now()).Seconds())
				h.Set("Retry-After", strconv.Itoa(max(retry, 1)))
				cfg.onLimitReached(w, r, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
