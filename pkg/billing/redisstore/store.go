// Package redisstore keeps billing subscriptions in Redis as JSON documents.
//
// Each record lives under "<prefix>:subscription:<user>". PAST_DUE users are
// additionally indexed in a sorted set scored by their grace deadline so the
// sweeper can find them without scanning the keyspace.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/innerbloom/billing/pkg/billing"
)

// DefaultPrefix is used when no prefix is configured.
const DefaultPrefix = "billing"

// Store implements billing.Store and billing.PastDueLister.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New creates a Store on top of client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(userID string) string {
	return s.prefix + ":subscription:" + userID
}

func (s *Store) pastDueKey() string {
	return s.prefix + ":subscription:past_due"
}

func (s *Store) Get(ctx context.Context, userID string) (*billing.Subscription, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, billing.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get billing subscription: %w", err)
	}

	var sub billing.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("decode billing subscription: %w", err)
	}
	return &sub, nil
}

// Save writes the record and keeps the past-due index in sync in one
// MULTI/EXEC block.
func (s *Store) Save(ctx context.Context, sub *billing.Subscription) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode billing subscription: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sub.UserID), raw, 0)
		if sub.Status == billing.StatusPastDue {
			var score float64
			if sub.GracePeriodEndsAt != nil {
				score = float64(sub.GracePeriodEndsAt.Unix())
			}
			pipe.ZAdd(ctx, s.pastDueKey(), redis.Z{Score: score, Member: sub.UserID})
		} else {
			pipe.ZRem(ctx, s.pastDueKey(), sub.UserID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save billing subscription: %w", err)
	}
	return nil
}

// ListPastDue returns PAST_DUE user ids, earliest grace deadline first.
// A non-positive limit returns all of them.
func (s *Store) ListPastDue(ctx context.Context, limit int) ([]string, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.ZRange(ctx, s.pastDueKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list past due subscriptions: %w", err)
	}
	return ids, nil
}
