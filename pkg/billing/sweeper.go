package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/innerbloom/billing/pkg/logger"
)

// SweeperConfig controls the background grace sweep.
type SweeperConfig struct {
	Enabled   bool          `env:"BILLING_SWEEPER_ENABLED" envDefault:"false"`
	Schedule  string        `env:"BILLING_SWEEPER_SCHEDULE" envDefault:"@every 15m"`
	BatchSize int           `env:"BILLING_SWEEPER_BATCH_SIZE" envDefault:"500"`
	Timeout   time.Duration `env:"BILLING_SWEEPER_TIMEOUT" envDefault:"1m"`
}

// Sweeper periodically reads PAST_DUE subscriptions so that expired grace
// periods are persisted without waiting for the user to come back. It only
// calls the regular read path; reads stay authoritative.
type Sweeper struct {
	svc    Service
	lister PastDueLister
	cfg    SweeperConfig
	cron   *cron.Cron
	logger *slog.Logger
}

// NewSweeper creates a Sweeper. It does nothing until Start is called.
func NewSweeper(svc Service, lister PastDueLister, cfg SweeperConfig, l *slog.Logger) *Sweeper {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(l.Handler(), slog.LevelWarn))
	return &Sweeper{
		svc:    svc,
		lister: lister,
		cfg:    cfg,
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		logger: l.With(logger.Component("billing.sweeper")),
	}
}

// Start schedules the sweep and starts the cron runner.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.runScheduled); err != nil {
		return fmt.Errorf("schedule grace sweep %q: %w", s.cfg.Schedule, err)
	}
	s.cron.Start()
	s.logger.Info("grace sweep scheduled", slog.String("schedule", s.cfg.Schedule))
	return nil
}

// Stop stops the runner. The returned context is done once a running sweep
// has finished.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Sweeper) runScheduled() {
	ctx := context.Background()
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.ErrorContext(ctx, "grace sweep failed", logger.Error(err))
	}
}

// Sweep reads one batch of PAST_DUE subscriptions and returns how many of
// them ended up CANCELED.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	ids, err := s.lister.ListPastDue(ctx, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list past due subscriptions: %w", err)
	}

	canceled := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return canceled, err
		}
		sub, err := s.svc.GetUserBillingSubscription(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "grace sweep read failed", logger.UserID(id), logger.Error(err))
			continue
		}
		if sub.IsCanceled() {
			canceled++
		}
	}

	if canceled > 0 {
		s.logger.InfoContext(ctx, "grace sweep finished",
			slog.Int("checked", len(ids)),
			slog.Int("canceled", canceled),
		)
	}
	return canceled, nil
}
