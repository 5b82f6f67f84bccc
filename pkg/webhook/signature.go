package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTolerance is the maximum allowed distance between the signed
	// timestamp and the verifier's clock.
	DefaultTolerance = 300 * time.Second

	// SchemeV1 is the only signature scheme accepted: hex HMAC-SHA256.
	SchemeV1 = "v1"

	timestampKey = "t"
)

// SignedHeader is the parsed form of a "t=<unix>,v1=<hex>[,v1=<hex>...]" header.
// Multiple v1 entries appear while a secret is being rolled.
type SignedHeader struct {
	Timestamp  int64
	Signatures []string
}

// String renders the header in wire format.
func (h SignedHeader) String() string {
	var b strings.Builder
	b.WriteString(timestampKey)
	b.WriteByte('=')
	b.WriteString(strconv.FormatInt(h.Timestamp, 10))
	for _, sig := range h.Signatures {
		b.WriteByte(',')
		b.WriteString(SchemeV1)
		b.WriteByte('=')
		b.WriteString(sig)
	}
	return b.String()
}

// ParseHeader parses a signature header. Unknown schemes (e.g. v0) are ignored.
func ParseHeader(header string) (SignedHeader, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return SignedHeader{}, errors.Join(ErrInvalidSignature, ErrMissingHeader)
	}

	var (
		parsed       SignedHeader
		hasTimestamp bool
	)
	for _, item := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			return SignedHeader{}, errors.Join(ErrInvalidSignature, ErrMalformedHeader)
		}
		switch key {
		case timestampKey:
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return SignedHeader{}, errors.Join(ErrInvalidSignature, ErrMalformedHeader,
					fmt.Errorf("invalid timestamp %q", value))
			}
			parsed.Timestamp = ts
			hasTimestamp = true
		case SchemeV1:
			if value != "" {
				parsed.Signatures = append(parsed.Signatures, value)
			}
		}
	}

	if !hasTimestamp || len(parsed.Signatures) == 0 {
		return SignedHeader{}, errors.Join(ErrInvalidSignature, ErrMalformedHeader)
	}
	return parsed, nil
}

// ComputeSignature returns hex(HMAC-SHA256(secret, "<timestamp>.<payload>")).
func ComputeSignature(secret string, timestamp int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	h.Write([]byte("."))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// SignPayload builds a header for payload signed at now.
func SignPayload(secret string, payload []byte, now time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}

	ts := now.Unix()
	return SignedHeader{
		Timestamp:  ts,
		Signatures: []string{ComputeSignature(secret, ts, payload)},
	}.String(), nil
}

// VerifySignature checks header against payload.
// Each v1 candidate is compared in constant time. When tolerance is positive
// the signed timestamp must lie within tolerance of now in either direction.
func VerifySignature(secret string, payload []byte, header string, tolerance time.Duration, now time.Time) error {
	if secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return errors.Join(ErrInvalidSignature, fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload))
	}

	parsed, err := ParseHeader(header)
	if err != nil {
		return err
	}

	expected := []byte(ComputeSignature(secret, parsed.Timestamp, payload))
	matched := false
	for _, candidate := range parsed.Signatures {
		if hmac.Equal(expected, []byte(candidate)) {
			matched = true
		}
	}
	if !matched {
		return errors.Join(ErrInvalidSignature, ErrNoMatchingSignature)
	}

	if tolerance > 0 {
		skew := now.Sub(time.Unix(parsed.Timestamp, 0))
		if skew < 0 {
			skew = -skew
		}
		if skew > tolerance {
			return errors.Join(ErrInvalidSignature,
				fmt.Errorf("%w: off by %v", ErrTimestampOutOfTolerance, skew.Truncate(time.Second)))
		}
	}

	return nil
}
