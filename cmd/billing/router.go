package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	billinghttp "github.com/innerbloom/billing/modules/billing"
	"github.com/innerbloom/billing/pkg/billing"
	"github.com/innerbloom/billing/pkg/clientip"
	"github.com/innerbloom/billing/pkg/environment"
	"github.com/innerbloom/billing/pkg/httpserver"
	"github.com/innerbloom/billing/pkg/logger"
	"github.com/innerbloom/billing/pkg/requestid"
)

func newRouter(d *dependencies, env environment.Environment) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(environment.Middleware(env))
	r.Use(d.metrics.Middleware)
	r.Use(requestLogger(d.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			requestid.Header,
			billing.StripeSignatureHeader,
		},
		ExposedHeaders: []string{
			requestid.Header,
			"Retry-After",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		AllowCredentials: true,
		MaxAge:           d.cfg.CORSMaxAge,
	}))

	r.Get("/health", httpserver.HealthHandler(d.logger, d.checks))
	r.Method(http.MethodGet, "/metrics", d.metrics.Handler())

	r.Mount("/billing", billinghttp.Router(d.service, billinghttp.RouterOptions{
		Verifier:       d.verifier,
		Logger:         d.logger,
		UserLimiter:    d.userLimiter,
		WebhookLimiter: d.webhookLimiter,
		MaxBodyBytes:   d.cfg.MaxBodyBytes,
	}))

	return r
}

// requestLogger logs one line per request. Context extractors on the logger
// add the request id and client ip.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case r.URL.Path == "/health" || r.URL.Path == "/metrics":
				level = slog.LevelDebug
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				logger.Duration(time.Since(start)),
			}
			log.LogAttrs(r.Context(), level, "http request", attrs...)
		})
	}
}
