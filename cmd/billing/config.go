package main

import (
	"fmt"
	"time"
)

// Store backends.
const (
	storeMemory   = "memory"
	storePostgres = "postgres"
	storeRedis    = "redis"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"billing"`

	Provider          string `env:"BILLING_PROVIDER" envDefault:"mock"`
	Store             string `env:"BILLING_STORE" envDefault:"memory"`
	MockBaseURL       string `env:"BILLING_MOCK_BASE_URL"`
	MockWebhookSecret string `env:"BILLING_MOCK_WEBHOOK_SECRET"`
	MaxBodyBytes      int64  `env:"BILLING_MAX_BODY_BYTES" envDefault:"1048576"`

	RateLimitStore    string        `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	UserRateLimit     int           `env:"RATE_LIMIT_USER_REQUESTS" envDefault:"60"`
	UserRateWindow    time.Duration `env:"RATE_LIMIT_USER_WINDOW" envDefault:"1m"`
	WebhookRateLimit  int           `env:"RATE_LIMIT_WEBHOOK_REQUESTS" envDefault:"300"`
	WebhookRateWindow time.Duration `env:"RATE_LIMIT_WEBHOOK_WINDOW" envDefault:"1m"`
	RateLimitDisabled bool          `env:"RATE_LIMIT_DISABLED" envDefault:"false"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	CORSMaxAge         int      `env:"CORS_MAX_AGE" envDefault:"300"`
}

func (c appConfig) validate() error {
	switch c.Store {
	case storeMemory, storePostgres, storeRedis:
	default:
		return fmt.Errorf("unknown BILLING_STORE %q: must be memory, postgres or redis", c.Store)
	}
	switch c.RateLimitStore {
	case storeMemory, storeRedis:
	default:
		return fmt.Errorf("unknown RATE_LIMIT_STORE %q: must be memory or redis", c.RateLimitStore)
	}
	return nil
}

// usesRedis reports whether any component needs a redis connection.
func (c appConfig) usesRedis() bool {
	return c.Store == storeRedis || (!c.RateLimitDisabled && c.RateLimitStore == storeRedis)
}
