package webhook_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innerbloom/billing/pkg/webhook"
)

const testSecret = "whsec_test"

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"id":"evt_1","type":"invoice.paid"}`)

	header, err := webhook.SignPayload(testSecret, payload, now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(header, fmt.Sprintf("t=%d,v1=", now.Unix())))

	tests := []struct {
		name    string
		secret  string
		payload []byte
		header  string
		now     time.Time
		wantErr error
	}{
		{
			name:    "valid",
			secret:  testSecret,
			payload: payload,
			header:  header,
			now:     now,
		},
		{
			name:    "clock slightly ahead",
			secret:  testSecret,
			payload: payload,
			header:  header,
			now:     now.Add(299 * time.Second),
		},
		{
			name:    "clock slightly behind",
			secret:  testSecret,
			payload: payload,
			header:  header,
			now:     now.Add(-299 * time.Second),
		},
		{
			name:    "timestamp too old",
			secret:  testSecret,
			payload: payload,
			header:  header,
			now:     now.Add(301 * time.Second),
			wantErr: webhook.ErrTimestampOutOfTolerance,
		},
		{
			name:    "timestamp in the future",
			secret:  testSecret,
			payload: payload,
			header:  header,
			now:     now.Add(-10 * time.Minute),
			wantErr: webhook.ErrTimestampOutOfTolerance,
		},
		{
			name:    "wrong secret",
			secret:  "other",
			payload: payload,
			header:  header,
			now:     now,
			wantErr: webhook.ErrNoMatchingSignature,
		},
		{
			name:    "tampered payload",
			secret:  testSecret,
			payload: []byte(`{"id":"evt_1","type":"invoice.pai"}`),
			header:  header,
			now:     now,
			wantErr: webhook.ErrNoMatchingSignature,
		},
		{
			name:    "missing header",
			secret:  testSecret,
			payload: payload,
			header:  "",
			now:     now,
			wantErr: webhook.ErrMissingHeader,
		},
		{
			name:    "no v1 entry",
			secret:  testSecret,
			payload: payload,
			header:  fmt.Sprintf("t=%d", now.Unix()),
			now:     now,
			wantErr: webhook.ErrMalformedHeader,
		},
		{
			name:    "non numeric timestamp",
			secret:  testSecret,
			payload: payload,
			header:  "t=abc,v1=deadbeef",
			now:     now,
			wantErr: webhook.ErrMalformedHeader,
		},
		{
			name:    "garbage",
			secret:  testSecret,
			payload: payload,
			header:  "not-a-header",
			now:     now,
			wantErr: webhook.ErrMalformedHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := webhook.VerifySignature(tt.secret, tt.payload, tt.header, webhook.DefaultTolerance, tt.now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, webhook.ErrInvalidSignature)
		})
	}
}

func TestVerifySignature_SingleBitFlip(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_767_225_600, 0)
	payload := []byte(`{"type":"invoice.payment_failed"}`)
	sig := webhook.ComputeSignature(testSecret, now.Unix(), payload)

	flipped := []byte(sig)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), flipped)

	err := webhook.VerifySignature(testSecret, payload, header, webhook.DefaultTolerance, now)
	assert.ErrorIs(t, err, webhook.ErrNoMatchingSignature)
}

func TestVerifySignature_MultipleCandidates(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_767_225_600, 0)
	payload := []byte(`{"type":"checkout.session.completed"}`)
	good := webhook.ComputeSignature(testSecret, now.Unix(), payload)
	stale := webhook.ComputeSignature("rolled_secret", now.Unix(), payload)

	header := webhook.SignedHeader{Timestamp: now.Unix(), Signatures: []string{stale, good}}.String()
	assert.NoError(t, webhook.VerifySignature(testSecret, payload, header, webhook.DefaultTolerance, now))

	// Unknown schemes are skipped.
	header = fmt.Sprintf("t=%d,v0=%s,v1=%s", now.Unix(), stale, good)
	assert.NoError(t, webhook.VerifySignature(testSecret, payload, header, webhook.DefaultTolerance, now))
}

func TestVerifySignature_ZeroToleranceSkipsTimestampCheck(t *testing.T) {
	t.Parallel()

	signedAt := time.Unix(1_000_000_000, 0)
	payload := []byte(`{}`)
	header, err := webhook.SignPayload(testSecret, payload, signedAt)
	require.NoError(t, err)

	assert.NoError(t, webhook.VerifySignature(testSecret, payload, header, 0, signedAt.Add(365*24*time.Hour)))
}

func TestSignPayload_Validation(t *testing.T) {
	t.Parallel()

	_, err := webhook.SignPayload("", []byte("x"), time.Now())
	assert.ErrorIs(t, err, webhook.ErrInvalidConfiguration)

	_, err = webhook.SignPayload(testSecret, nil, time.Now())
	assert.ErrorIs(t, err, webhook.ErrInvalidPayload)

	err = webhook.VerifySignature("", []byte("x"), "t=1,v1=aa", webhook.DefaultTolerance, time.Now())
	assert.ErrorIs(t, err, webhook.ErrInvalidConfiguration)
}

func TestParseHeader(t *testing.T) {
	t.Parallel()

	h, err := webhook.ParseHeader(" t=42, v1=aa ,v1=bb")
	require.NoError(t, err)
	assert.Equal(t, int64(42), h.Timestamp)
	assert.Equal(t, []string{"aa", "bb"}, h.Signatures)
	assert.Equal(t, "t=42,v1=aa,v1=bb", h.String())
}
