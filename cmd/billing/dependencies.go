package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/innerbloom/billing/pkg/billing"
	"github.com/innerbloom/billing/pkg/billing/pgstore"
	"github.com/innerbloom/billing/pkg/billing/redisstore"
	"github.com/innerbloom/billing/pkg/config"
	"github.com/innerbloom/billing/pkg/httpserver"
	"github.com/innerbloom/billing/pkg/identity"
	"github.com/innerbloom/billing/pkg/logger"
	"github.com/innerbloom/billing/pkg/metrics"
	"github.com/innerbloom/billing/pkg/pg"
	"github.com/innerbloom/billing/pkg/rabbitmq"
	"github.com/innerbloom/billing/pkg/ratelimit"
	"github.com/innerbloom/billing/pkg/redis"
)

// dependencies holds everything the HTTP layer needs. closers run in reverse
// order on shutdown.
type dependencies struct {
	cfg    appConfig
	logger *slog.Logger

	store    billing.Store
	lister   billing.PastDueLister
	provider billing.Provider
	service  billing.Service
	sweeper  *billing.Sweeper
	metrics  *metrics.Metrics
	verifier *identity.Verifier

	userLimiter    ratelimit.Limiter
	webhookLimiter ratelimit.Limiter

	redisClient *goredis.Client
	checks      map[string]httpserver.Check
	closers     []func(context.Context) error
}

func initDependencies(ctx context.Context, cfg appConfig, log *slog.Logger) (*dependencies, error) {
	d := &dependencies{
		cfg:     cfg,
		logger:  log,
		metrics: metrics.New(),
		checks:  make(map[string]httpserver.Check),
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"identity", d.initIdentity},
		{"redis", d.initRedis},
		{"store", d.initStore},
		{"provider", d.initProvider},
		{"service", d.initService},
		{"rate limiter", d.initRateLimiters},
		{"sweeper", d.initSweeper},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return nil, errors.Join(fmt.Errorf("init %s: %w", step.name, err), d.close(ctx))
		}
	}

	log.InfoContext(ctx, "dependencies initialized",
		slog.String("store", cfg.Store),
		logger.Provider(d.provider.Name()),
	)
	return d, nil
}

func (d *dependencies) initIdentity(context.Context) error {
	var cfg identity.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	v, err := identity.NewVerifier(cfg)
	if err != nil {
		return err
	}
	d.verifier = v
	return nil
}

func (d *dependencies) initRedis(ctx context.Context) error {
	if !d.cfg.usesRedis() {
		return nil
	}
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	d.redisClient = client
	d.checks["redis"] = redis.Healthcheck(client)
	d.closers = append(d.closers, func(context.Context) error { return client.Close() })
	return nil
}

func (d *dependencies) initStore(ctx context.Context) error {
	switch d.cfg.Store {
	case storePostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		if cfg.AutoMigrate {
			if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, d.logger); err != nil {
				return err
			}
		}
		store := pgstore.New(pool, pgstore.WithLogger(d.logger))
		d.store, d.lister = store, store
		d.checks["postgres"] = pg.Healthcheck(pool)

	case storeRedis:
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		store := redisstore.New(d.redisClient, redisstore.WithPrefix(cfg.KeyPrefix))
		d.store, d.lister = store, store

	default:
		store := billing.NewMemoryStore()
		d.store, d.lister = store, store
	}
	return nil
}

func (d *dependencies) initProvider(context.Context) error {
	switch d.cfg.Provider {
	case billing.ProviderStripe:
		var cfg billing.StripeConfig
		if err := config.Load(&cfg); err != nil {
			return err
		}
		p, err := billing.NewStripeProvider(cfg)
		if err != nil {
			return err
		}
		d.provider = p
	case billing.ProviderMock, "":
		d.provider = billing.NewMockProvider(
			billing.WithMockBaseURL(d.cfg.MockBaseURL),
			billing.WithMockWebhookSecret(d.cfg.MockWebhookSecret),
		)
	default:
		return fmt.Errorf("unknown BILLING_PROVIDER %q: must be mock or stripe", d.cfg.Provider)
	}
	return nil
}

func (d *dependencies) initService(context.Context) error {
	publisher, err := d.newPublisher()
	if err != nil {
		return err
	}
	d.service = billing.NewService(d.store, d.provider,
		billing.WithLogger(d.logger),
		billing.WithPublisher(publisher),
		billing.WithMetrics(d.metrics),
	)
	return nil
}

// newPublisher returns the broker publisher when AMQP is configured and the
// logging publisher otherwise.
func (d *dependencies) newPublisher() (billing.Publisher, error) {
	var cfg rabbitmq.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if cfg.URL == "" {
		d.logger.Info("AMQP_URL not set, subscription events are logged only")
		return billing.NewLogPublisher(d.logger), nil
	}

	pub, err := rabbitmq.Dial(cfg, d.logger)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, func(context.Context) error { return pub.Close() })
	return billing.NewBrokerPublisher(pub), nil
}

func (d *dependencies) initRateLimiters(context.Context) error {
	if d.cfg.RateLimitDisabled {
		return nil
	}

	var store ratelimit.Store
	if d.cfg.RateLimitStore == storeRedis {
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		store = ratelimit.NewRedisStore(d.redisClient, cfg.KeyPrefix)
	} else {
		mem := ratelimit.NewMemoryStore()
		d.closers = append(d.closers, func(context.Context) error {
			mem.Close()
			return nil
		})
		store = mem
	}

	var err error
	if d.userLimiter, err = ratelimit.NewFixedWindow(store, d.cfg.UserRateLimit, d.cfg.UserRateWindow); err != nil {
		return err
	}
	if d.webhookLimiter, err = ratelimit.NewFixedWindow(store, d.cfg.WebhookRateLimit, d.cfg.WebhookRateWindow); err != nil {
		return err
	}
	return nil
}

func (d *dependencies) initSweeper(context.Context) error {
	var cfg billing.SweeperConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if !cfg.Enabled {
		return nil
	}

	d.sweeper = billing.NewSweeper(d.service, d.lister, cfg, d.logger)
	if err := d.sweeper.Start(); err != nil {
		return err
	}
	d.closers = append(d.closers, func(ctx context.Context) error {
		select {
		case <-d.sweeper.Stop().Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	return nil
}

// close runs the registered closers in reverse order.
func (d *dependencies) close(ctx context.Context) error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
