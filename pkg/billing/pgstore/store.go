// Package pgstore persists billing subscriptions in PostgreSQL.
//
// The schema lives in the embedded migrations directory and is applied with
// pg.Migrate. When the table is missing (SQLSTATE 42P01) the store degrades
// instead of failing: reads report no record, so callers see the default FREE
// subscription, and writes are skipped with a warning.
package pgstore

import (
	"context"
	"embed"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/innerbloom/billing/pkg/billing"
	"github.com/innerbloom/billing/pkg/logger"
	"github.com/innerbloom/billing/pkg/pg"
)

// Migrations holds the goose migrations for the billing schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	selectSubscriptionSQL = `SELECT user_id, plan, status, current_period_start, current_period_end,
       cancel_at_period_end, canceled_at, past_due_marked_at, grace_period_ends_at,
       created_at, updated_at
FROM billing_subscriptions
WHERE user_id = $1`

	upsertSubscriptionSQL = `INSERT INTO billing_subscriptions (
    user_id, plan, status, current_period_start, current_period_end,
    cancel_at_period_end, canceled_at, past_due_marked_at, grace_period_ends_at,
    created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (user_id) DO UPDATE SET
    plan                 = EXCLUDED.plan,
    status               = EXCLUDED.status,
    current_period_start = EXCLUDED.current_period_start,
    current_period_end   = EXCLUDED.current_period_end,
    cancel_at_period_end = EXCLUDED.cancel_at_period_end,
    canceled_at          = EXCLUDED.canceled_at,
    past_due_marked_at   = EXCLUDED.past_due_marked_at,
    grace_period_ends_at = EXCLUDED.grace_period_ends_at,
    updated_at           = EXCLUDED.updated_at`

	listPastDueSQL = `SELECT user_id
FROM billing_subscriptions
WHERE status = 'PAST_DUE'
ORDER BY grace_period_ends_at NULLS LAST, user_id
LIMIT $1`
)

// Store implements billing.Store and billing.PastDueLister.
type Store struct {
	db     DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for the missing-table warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store on top of db.
func New(db DB, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, userID string) (*billing.Subscription, error) {
	var (
		sub          billing.Subscription
		plan, status string
	)
	err := s.db.QueryRow(ctx, selectSubscriptionSQL, userID).Scan(
		&sub.UserID,
		&plan,
		&status,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.CancelAtPeriodEnd,
		&sub.CanceledAt,
		&sub.PastDueMarkedAt,
		&sub.GracePeriodEndsAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	switch {
	case pg.IsNotFoundError(err):
		return nil, billing.ErrSubscriptionNotFound
	case pg.IsUndefinedTableError(err):
		s.warnMissingTable(ctx, "get", userID, err)
		return nil, billing.ErrSubscriptionNotFound
	case err != nil:
		return nil, fmt.Errorf("select billing subscription: %w", err)
	}

	sub.Plan = billing.PlanCode(plan)
	sub.Status = billing.Status(status)
	normalize(&sub)
	return &sub, nil
}

func (s *Store) Save(ctx context.Context, sub *billing.Subscription) error {
	_, err := s.db.Exec(ctx, upsertSubscriptionSQL,
		sub.UserID,
		string(sub.Plan),
		string(sub.Status),
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd,
		sub.CanceledAt,
		sub.PastDueMarkedAt,
		sub.GracePeriodEndsAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	switch {
	case pg.IsUndefinedTableError(err):
		s.warnMissingTable(ctx, "save", sub.UserID, err)
		return nil
	case err != nil:
		return fmt.Errorf("upsert billing subscription: %w", err)
	}
	return nil
}

// ListPastDue returns PAST_DUE user ids ordered by grace deadline.
// A non-positive limit returns all of them.
func (s *Store) ListPastDue(ctx context.Context, limit int) ([]string, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, err := s.db.Query(ctx, listPastDueSQL, limitArg)
	if err != nil {
		if pg.IsUndefinedTableError(err) {
			s.warnMissingTable(ctx, "list_past_due", "", err)
			return nil, nil
		}
		return nil, fmt.Errorf("list past due subscriptions: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan past due subscriptions: %w", err)
	}
	return ids, nil
}

func (s *Store) warnMissingTable(ctx context.Context, op, userID string, err error) {
	s.logger.WarnContext(ctx, "billing_subscriptions table is missing, falling back to defaults",
		slog.String("op", op),
		logger.UserID(userID),
		logger.Error(err),
	)
}

// normalize converts driver timestamps to UTC.
func normalize(sub *billing.Subscription) {
	for _, t := range []*time.Time{
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.CanceledAt,
		sub.PastDueMarkedAt,
		sub.GracePeriodEndsAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	} {
		if t != nil {
			*t = t.UTC()
		}
	}
}
