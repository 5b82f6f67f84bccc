package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/innerbloom/billing/pkg/logger"
)

// ChangeKind names a persisted subscription change.
type ChangeKind string

const (
	ChangeCreated      ChangeKind = "created"
	ChangeSubscribed   ChangeKind = "subscribed"
	ChangePlanChanged  ChangeKind = "plan_changed"
	ChangeActivated    ChangeKind = "activated"
	ChangePastDue      ChangeKind = "past_due"
	ChangeCanceled     ChangeKind = "canceled"
	ChangeReactivated  ChangeKind = "reactivated"
	ChangeGraceExpired ChangeKind = "grace_expired"
)

// Change sources.
const (
	SourceAPI     = "api"
	SourceWebhook = "webhook"
	SourceRead    = "read"
)

// ChangeEvent describes a subscription change after it has been saved.
type ChangeEvent struct {
	Kind           ChangeKind `json:"kind"`
	UserID         string     `json:"user_id"`
	Plan           PlanCode   `json:"plan"`
	Status         Status     `json:"status"`
	PreviousPlan   PlanCode   `json:"previous_plan,omitempty"`
	PreviousStatus Status     `json:"previous_status,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	Source         string     `json:"source"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// RoutingKey is the broker routing key for the event.
func (e ChangeEvent) RoutingKey() string {
	return "subscription." + string(e.Kind)
}

func newChangeEvent(kind ChangeKind, before, after *Subscription, source string, now time.Time) *ChangeEvent {
	ev := &ChangeEvent{
		Kind:       kind,
		UserID:     after.UserID,
		Plan:       after.Plan,
		Status:     after.Status,
		Source:     source,
		OccurredAt: now,
	}
	if before != nil {
		ev.PreviousPlan = before.Plan
		ev.PreviousStatus = before.Status
	}
	return ev
}

// Publisher delivers change events. Delivery is best effort: failures are
// logged and never roll back a saved change.
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// MessagePublisher sends a raw message to a broker.
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

type brokerPublisher struct {
	mp MessagePublisher
}

// NewBrokerPublisher encodes events as JSON and hands them to mp under
// "subscription.<kind>" routing keys.
func NewBrokerPublisher(mp MessagePublisher) Publisher {
	return &brokerPublisher{mp: mp}
}

func (p *brokerPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	return p.mp.Publish(ctx, event.RoutingKey(), body)
}

type logPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher writes events to the log. It stands in for the broker when
// none is configured.
func NewLogPublisher(l *slog.Logger) Publisher {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	return &logPublisher{logger: l}
}

func (p *logPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	p.logger.InfoContext(ctx, "subscription changed",
		logger.Event(event.RoutingKey()),
		logger.UserID(event.UserID),
		logger.Plan(string(event.Plan)),
		logger.Status(string(event.Status)),
		slog.String("source", event.Source),
	)
	return nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ChangeEvent) error { return nil }

// Metrics receives lifecycle and webhook counters.
type Metrics interface {
	TransitionRecorded(event Event, from, to Status)
	WebhookProcessed(eventType, outcome string)
}

// Webhook outcomes reported to Metrics.
const (
	WebhookOutcomeHandled  = "handled"
	WebhookOutcomeIgnored  = "ignored"
	WebhookOutcomeRejected = "rejected"
	WebhookOutcomeFailed   = "failed"
)

type noopMetrics struct{}

func (noopMetrics) TransitionRecorded(Event, Status, Status) {}
func (noopMetrics) WebhookProcessed(string, string)          {}
