package billing

import "context"

// Store persists subscription records keyed by user id.
type Store interface {
	// Get returns ErrSubscriptionNotFound when the user has no record yet.
	Get(ctx context.Context, userID string) (*Subscription, error)

	// Save creates or replaces the record for sub.UserID.
	Save(ctx context.Context, sub *Subscription) error
}

// PastDueLister is implemented by stores that can enumerate PAST_DUE records.
// The Sweeper uses it to find candidates for grace expiry.
type PastDueLister interface {
	ListPastDue(ctx context.Context, limit int) ([]string, error)
}
