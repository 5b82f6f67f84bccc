// Package billing manages per-user subscription state for Innerbloom.
//
// Every user owns exactly one Subscription record. It is created lazily with
// plan FREE and status ACTIVE the first time the user is seen, and is never
// deleted: cancellation is a status, not a removal.
//
// # Lifecycle
//
// Statuses move through a fixed transition table (see lifecycle.go):
//
//	ACTIVE   --subscribe/activate--> ACTIVE
//	ACTIVE   --mark_past_due-------> PAST_DUE  (grace deadline = now + 7 days)
//	PAST_DUE --expire_grace--------> CANCELED  (evaluated lazily on read)
//	any      --cancel--------------> CANCELED  (immediate)
//	CANCELED --reactivate----------> ACTIVE
//
// Grace expiry is evaluated on every read: a PAST_DUE record whose grace
// deadline is not after the current time is returned and persisted as
// CANCELED with CanceledAt set to the read time. An optional Sweeper can run
// the same read path on a schedule, but reads remain the source of truth.
//
// # Persistence
//
// Service depends on the Store interface. MemoryStore ships in this package;
// Postgres and Redis implementations live in the pgstore and redisstore
// subpackages.
//
// # Providers
//
// Checkout, customer portal and webhook parsing go through Provider.
// MockProvider returns deterministic URLs for local use. StripeProvider
// verifies webhook signatures but reports ErrProviderNotReady for checkout
// and portal requests.
//
// # Errors
//
// Operations return *Error values carrying a stable Code. Use errors.Is with
// the exported sentinels or CodeOf to classify them.
package billing
