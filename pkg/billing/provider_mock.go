package billing

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/innerbloom/billing/pkg/webhook"
)

const (
	// ProviderMock is the name of MockProvider.
	ProviderMock = "mock"

	defaultMockBaseURL = "http://localhost:8080/billing/mock"
	mockCheckoutTTL    = 30 * time.Minute
	mockPortalTTL      = 24 * time.Hour
)

// mockNamespace seeds the name-based UUIDs so identical inputs always map to
// the same session id.
var mockNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://innerbloom.app/billing/mock"))

// MockProvider fakes a payment processor for local and test environments.
// Checkout and portal calls always succeed with deterministic ids and URLs.
type MockProvider struct {
	baseURL       string
	webhookSecret string
	tolerance     time.Duration
	now           func() time.Time
}

// MockOption configures a MockProvider.
type MockOption func(*MockProvider)

// WithMockBaseURL sets the URL prefix of generated links.
func WithMockBaseURL(base string) MockOption {
	return func(p *MockProvider) {
		if base != "" {
			p.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithMockWebhookSecret makes ParseWebhook verify signatures like the real
// processor. Without it payloads are trusted as-is.
func WithMockWebhookSecret(secret string) MockOption {
	return func(p *MockProvider) {
		p.webhookSecret = secret
	}
}

// WithMockClock overrides the time source.
func WithMockClock(now func() time.Time) MockOption {
	return func(p *MockProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewMockProvider creates a MockProvider.
func NewMockProvider(opts ...MockOption) *MockProvider {
	p := &MockProvider{
		baseURL:   defaultMockBaseURL,
		tolerance: webhook.DefaultTolerance,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *MockProvider) Name() string { return ProviderMock }

func (p *MockProvider) CreateCheckoutSession(_ context.Context, params CheckoutParams) (*CheckoutSession, error) {
	id := "cs_mock_" + mockID("checkout", params.UserID, string(params.Plan.Code))

	q := url.Values{}
	q.Set("plan", string(params.Plan.Code))
	if params.SuccessURL != "" {
		q.Set("success_url", params.SuccessURL)
	}
	if params.CancelURL != "" {
		q.Set("cancel_url", params.CancelURL)
	}

	return &CheckoutSession{
		ID:        id,
		URL:       p.baseURL + "/checkout/" + id + "?" + q.Encode(),
		Provider:  ProviderMock,
		ExpiresAt: p.now().Add(mockCheckoutTTL),
	}, nil
}

func (p *MockProvider) CreatePortalSession(_ context.Context, params PortalParams) (*PortalSession, error) {
	id := "bps_mock_" + mockID("portal", params.UserID)

	link := p.baseURL + "/portal/" + id
	if params.ReturnURL != "" {
		link += "?" + url.Values{"return_url": {params.ReturnURL}}.Encode()
	}

	return &PortalSession{
		ID:        id,
		URL:       link,
		Provider:  ProviderMock,
		ExpiresAt: p.now().Add(mockPortalTTL),
	}, nil
}

func (p *MockProvider) ParseWebhook(_ context.Context, payload []byte, signatureHeader string) (*WebhookEvent, error) {
	if p.webhookSecret != "" {
		if err := webhook.VerifySignature(p.webhookSecret, payload, signatureHeader, p.tolerance, p.now()); err != nil {
			return nil, newError(CodeInvalidSignature, "webhook signature verification failed", err)
		}
	}

	ev, err := decodeWebhookEvent(payload)
	if err != nil {
		return nil, newError(CodeValidationFailed, "malformed webhook payload", err)
	}
	return ev, nil
}

func mockID(parts ...string) string {
	return uuid.NewSHA1(mockNamespace, []byte(strings.Join(parts, ":"))).String()
}

// compile-time checks
var (
	_ Provider = (*MockProvider)(nil)
	_ Provider = (*StripeProvider)(nil)
)

var errNotReady = errors.New("payment processor integration is not implemented")
