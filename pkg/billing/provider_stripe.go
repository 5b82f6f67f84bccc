package billing

import (
	"context"
	"time"

	"github.com/innerbloom/billing/pkg/webhook"
)

const (
	// ProviderStripe is the name of StripeProvider.
	ProviderStripe = "stripe"

	// StripeSignatureHeader carries the webhook signature.
	StripeSignatureHeader = "Stripe-Signature"
)

// StripeConfig holds settings for the real payment processor.
type StripeConfig struct {
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

// StripeProvider is the real-processor provider. Only webhook verification is
// implemented; checkout and portal report ErrProviderNotReady. Signatures
// older than webhook.DefaultTolerance are rejected.
type StripeProvider struct {
	webhookSecret string
	tolerance     time.Duration
	now           func() time.Time
}

// StripeOption configures a StripeProvider.
type StripeOption func(*StripeProvider)

// WithStripeClock overrides the time source used for the tolerance check.
func WithStripeClock(now func() time.Time) StripeOption {
	return func(p *StripeProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewStripeProvider creates a StripeProvider. The webhook secret is required.
func NewStripeProvider(cfg StripeConfig, opts ...StripeOption) (*StripeProvider, error) {
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}
	p := &StripeProvider{
		webhookSecret: cfg.WebhookSecret,
		tolerance:     webhook.DefaultTolerance,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *StripeProvider) Name() string { return ProviderStripe }

func (p *StripeProvider) CreateCheckoutSession(context.Context, CheckoutParams) (*CheckoutSession, error) {
	return nil, newError(CodeProviderNotReady, "stripe checkout is not available yet", errNotReady)
}

func (p *StripeProvider) CreatePortalSession(context.Context, PortalParams) (*PortalSession, error) {
	return nil, newError(CodeProviderNotReady, "stripe customer portal is not available yet", errNotReady)
}

func (p *StripeProvider) ParseWebhook(_ context.Context, payload []byte, signatureHeader string) (*WebhookEvent, error) {
	if err := webhook.VerifySignature(p.webhookSecret, payload, signatureHeader, p.tolerance, p.now()); err != nil {
		return nil, newError(CodeInvalidSignature, "webhook signature verification failed", err)
	}

	ev, err := decodeWebhookEvent(payload)
	if err != nil {
		return nil, newError(CodeValidationFailed, "malformed webhook payload", err)
	}
	return ev, nil
}
