package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Provider abstracts the payment processor. Implementations must verify
// webhook authenticity before returning an event.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	CreatePortalSession(ctx context.Context, params PortalParams) (*PortalSession, error)

	// ParseWebhook verifies and decodes an inbound webhook body.
	ParseWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookEvent, error)
}

// CheckoutParams is what a provider needs to build a checkout session.
type CheckoutParams struct {
	UserID     string
	Email      string
	Plan       Plan
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a hosted checkout page.
type CheckoutSession struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Provider  string    `json:"provider"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PortalParams is what a provider needs to open a customer portal.
type PortalParams struct {
	UserID       string
	ReturnURL    string
	Subscription *Subscription
}

// PortalSession is a pre-authenticated customer portal link.
type PortalSession struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Provider  string    `json:"provider"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Processor event types the service reacts to.
const (
	WebhookCheckoutCompleted       = "checkout.session.completed"
	WebhookInvoicePaid             = "invoice.paid"
	WebhookInvoicePaymentSucceeded = "invoice.payment_succeeded"
	WebhookInvoicePaymentFailed    = "invoice.payment_failed"
	WebhookSubscriptionDeleted     = "customer.subscription.deleted"

	// WebhookTypeOther labels metrics for every other event type.
	WebhookTypeOther = "other"
)

// WebhookEvent is a verified, decoded processor event.
type WebhookEvent struct {
	ID        string
	Type      string
	UserID    string
	Plan      PlanCode
	CreatedAt time.Time
	Raw       json.RawMessage
}

// wireEvent is the processor's event envelope. Only the fields the service
// reads are decoded.
type wireEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object struct {
			ClientReferenceID string            `json:"client_reference_id"`
			Metadata          map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func decodeWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}
	if w.Type == "" {
		return nil, errors.Join(ErrMalformedEvent, errors.New("missing event type"))
	}

	obj := w.Data.Object
	userID := obj.Metadata["user_id"]
	if userID == "" {
		userID = obj.ClientReferenceID
	}

	ev := &WebhookEvent{
		ID:     w.ID,
		Type:   w.Type,
		UserID: userID,
		Plan:   PlanCode(obj.Metadata["plan"]),
		Raw:    json.RawMessage(payload),
	}
	if w.Created > 0 {
		ev.CreatedAt = time.Unix(w.Created, 0).UTC()
	}
	return ev, nil
}
