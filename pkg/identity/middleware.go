package identity

import (
	"net/http"
	"strings"
)

// TokenExtractor pulls the raw token out of a request.
type TokenExtractor func(r *http.Request) (string, error)

// ErrorHandler writes the response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	extractor TokenExtractor
	onError   ErrorHandler
}

// WithExtractor replaces the bearer header extractor.
func WithExtractor(fn TokenExtractor) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.extractor = fn
		}
	}
}

// WithErrorHandler replaces the plain-text 401 response.
func WithErrorHandler(fn ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onError = fn
		}
	}
}

// Middleware rejects requests without a valid token and stores the caller in
// the request context.
func Middleware(v *Verifier, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		extractor: BearerTokenExtractor,
		onError: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := cfg.extractor(r)
			if err != nil {
				cfg.onError(w, r, err)
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				cfg.onError(w, r, err)
				return
			}

			ctx := WithUser(r.Context(), User{ID: claims.Subject, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
