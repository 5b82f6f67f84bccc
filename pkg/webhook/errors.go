package webhook

import "errors"

// Every verification failure wraps ErrInvalidSignature so callers can treat
// them uniformly, while the specific error explains what was wrong.
var (
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
	ErrInvalidPayload       = errors.New("invalid webhook payload")

	ErrMissingHeader           = errors.New("signature header is missing")
	ErrMalformedHeader         = errors.New("signature header is malformed")
	ErrNoMatchingSignature     = errors.New("no signature matches the payload")
	ErrTimestampOutOfTolerance = errors.New("signature timestamp outside tolerance window")
)
