package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/innerbloom/billing/pkg/clientip"
)

// maxKeyLength caps storage key length; longer composite keys are hashed.
const maxKeyLength = 64

// KeyFunc extracts the rate limit key from a request. An empty key skips
// limiting for that request.
type KeyFunc func(*http.Request) string

// ByIP keys requests by client address.
func ByIP() KeyFunc {
	return func(r *http.Request) string {
		if ip := clientip.FromContext(r.Context()); ip != "" {
			return "ip:" + ip
		}
		if ip := clientip.GetIP(r); ip != "" {
			return "ip:" + ip
		}
		return ""
	}
}

// ByContext keys requests by a value read from the request context, such as
// the authenticated user id.
func ByContext(prefix string, fn func(context.Context) string) KeyFunc {
	return func(r *http.Request) string {
		if v := fn(r.Context()); v != "" {
			return prefix + ":" + v
		}
		return ""
	}
}

// Composite joins the non-empty keys of fns with ":".
func Composite(fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}
		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			sum := sha256.Sum256([]byte(combined))
			return hex.EncodeToString(sum[:16])
		}
		return combined
	}
}
