package billing

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/innerbloom/billing/pkg/billing"
	"github.com/innerbloom/billing/pkg/identity"
	"github.com/innerbloom/billing/pkg/ratelimit"
)

// DefaultMaxBodyBytes bounds request and webhook payloads.
const DefaultMaxBodyBytes int64 = 1 << 20

// Webhook signature headers, checked in order.
var signatureHeaders = []string{billing.StripeSignatureHeader, "X-Webhook-Signature"}

// RouterOptions configures the billing router. Verifier is required; the
// limiters are optional.
type RouterOptions struct {
	Verifier       *identity.Verifier
	Logger         *slog.Logger
	UserLimiter    ratelimit.Limiter
	WebhookLimiter ratelimit.Limiter
	MaxBodyBytes   int64
}

type handlers struct {
	svc      billing.Service
	log      *slog.Logger
	maxBytes int64
}

// Router returns the billing routes. Authenticated routes read the user id
// from the identity token; /webhook is authenticated by its signature.
func Router(svc billing.Service, opts RouterOptions) chi.Router {
	if svc == nil {
		panic("billing.Router: service is required")
	}
	if opts.Verifier == nil {
		panic("billing.Router: identity verifier is required")
	}

	h := &handlers{svc: svc, log: opts.Logger, maxBytes: opts.MaxBodyBytes}
	if h.log == nil {
		h.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if h.maxBytes <= 0 {
		h.maxBytes = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondCode(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondCode(w, http.StatusMethodNotAllowed, codeNotAllowed, "method not allowed")
	})

	r.Get("/plans", h.listPlans)

	r.Group(func(r chi.Router) {
		if opts.WebhookLimiter != nil {
			r.Use(ratelimit.Middleware(opts.WebhookLimiter, ratelimit.ByIP(),
				ratelimit.WithOnLimitReached(rateLimited),
				ratelimit.WithLogger(h.log),
			))
		}
		r.Post("/webhook", h.webhook)
	})

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(opts.Verifier, identity.WithErrorHandler(h.unauthorized)))
		if opts.UserLimiter != nil {
			r.Use(ratelimit.Middleware(opts.UserLimiter, ratelimit.ByContext("user", identity.UserID),
				ratelimit.WithOnLimitReached(rateLimited),
				ratelimit.WithLogger(h.log),
			))
		}

		r.Get("/subscription", h.getSubscription)
		r.Post("/subscribe", h.subscribe)
		r.Post("/change-plan", h.changePlan)
		r.Post("/cancel", h.cancel)
		r.Post("/reactivate", h.reactivate)
		r.Post("/checkout", h.checkout)
		r.Post("/portal", h.portal)
	})

	return r
}

func (h *handlers) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, h.log, &billing.Error{
		Code:    billing.CodeUnauthenticated,
		Message: billing.ErrUnauthenticated.Message,
		Err:     err,
	})
}

func rateLimited(w http.ResponseWriter, _ *http.Request, _ *ratelimit.Result) {
	respondCode(w, http.StatusTooManyRequests, codeRateLimited, "too many requests")
}
