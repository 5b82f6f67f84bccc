package billing

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Records are copied on the way in and
// out so callers never share state with the map.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]*Subscription)}
}

func (m *MemoryStore) Get(ctx context.Context, userID string) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subs[userID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, sub *Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.subs[sub.UserID] = sub.Clone()
	return nil
}

// ListPastDue returns up to limit user ids with status PAST_DUE, earliest
// grace deadline first. Records without a deadline sort first, ties by id.
// A non-positive limit returns all of them.
func (m *MemoryStore) ListPastDue(ctx context.Context, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type candidate struct {
		id       string
		deadline time.Time
	}

	m.mu.RLock()
	due := make([]candidate, 0)
	for id, sub := range m.subs {
		if sub.Status != StatusPastDue {
			continue
		}
		c := candidate{id: id}
		if sub.GracePeriodEndsAt != nil {
			c.deadline = *sub.GracePeriodEndsAt
		}
		due = append(due, c)
	}
	m.mu.RUnlock()

	slices.SortFunc(due, func(a, b candidate) int {
		if c := a.deadline.Compare(b.deadline); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	ids := make([]string, len(due))
	for i, c := range due {
		ids[i] = c.id
	}
	return ids, nil
}

// Reset drops all records.
func (m *MemoryStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.subs)
}
