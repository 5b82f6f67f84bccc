package identity

import (
	"context"
	"log/slog"

	"github.com/innerbloom/billing/pkg/logger"
)

// User is the authenticated caller.
type User struct {
	ID    string
	Email string
}

type contextKey struct{}

// WithUser stores the authenticated caller in ctx.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the caller stored by WithUser.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(contextKey{}).(User)
	return u, ok && u.ID != ""
}

// UserID returns the authenticated user id or "".
func UserID(ctx context.Context) string {
	u, _ := UserFromContext(ctx)
	return u.ID
}

// LoggerExtractor adds user_id to log records of authenticated requests.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := UserID(ctx); id != "" {
			return logger.UserID(id), true
		}
		return slog.Attr{}, false
	}
}
