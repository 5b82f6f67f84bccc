// Package webhook implements HMAC-SHA256 signing and verification of inbound
// payment-processor webhooks.
//
// Signatures travel in a single header of the form
//
//	t=<unix_seconds>,v1=<hex_hmac_sha256>[,v1=<hex_hmac_sha256>...]
//
// where every v1 value is HMAC-SHA256(secret, "<t>.<raw body>"). Verification
// recomputes the expected value, compares it against each v1 candidate with
// hmac.Equal, and rejects the request when none match or when t is more than
// the tolerance (DefaultTolerance, 300s) away from the verifier's clock.
//
// # Usage
//
//	body, _ := io.ReadAll(r.Body)
//	err := webhook.VerifySignature(secret, body, r.Header.Get("Stripe-Signature"),
//	    webhook.DefaultTolerance, time.Now())
//	if errors.Is(err, webhook.ErrInvalidSignature) {
//	    http.Error(w, "invalid signature", http.StatusBadRequest)
//	    return
//	}
//
// SignPayload produces a valid header and is meant for tests and local tooling.
package webhook
