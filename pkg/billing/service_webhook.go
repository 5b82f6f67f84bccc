package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/innerbloom/billing/pkg/logger"
)

// WebhookResult reports what HandleWebhook did with an event.
type WebhookResult struct {
	EventID      string        `json:"event_id"`
	Type         string        `json:"type"`
	Handled      bool          `json:"handled"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// HandleWebhook verifies the payload with the provider and dispatches the
// recognized event types to lifecycle transitions. Unknown types, and events
// without a user id, are acknowledged without changes.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error) {
	ev, err := s.provider.ParseWebhook(ctx, payload, signatureHeader)
	if err != nil {
		var berr *Error
		if !errors.As(err, &berr) {
			err = newError(CodeInvalidSignature, "webhook rejected", err)
		}
		s.metrics.WebhookProcessed("unknown", WebhookOutcomeRejected)
		s.logger.WarnContext(ctx, "webhook rejected",
			logger.Provider(s.provider.Name()),
			logger.Error(err),
		)
		return nil, err
	}

	result := &WebhookResult{EventID: ev.ID, Type: ev.Type}
	log := s.logger.With(
		logger.Provider(s.provider.Name()),
		logger.EventType(ev.Type),
		slog.String("event_id", ev.ID),
	)

	apply := s.webhookTransition(ctx, ev)
	if apply == nil {
		s.metrics.WebhookProcessed(webhookMetricType(ev.Type), WebhookOutcomeIgnored)
		log.DebugContext(ctx, "webhook event ignored")
		return result, nil
	}
	if ev.UserID == "" {
		s.metrics.WebhookProcessed(webhookMetricType(ev.Type), WebhookOutcomeIgnored)
		log.WarnContext(ctx, "webhook event has no user id")
		return result, nil
	}

	sub, err := s.mutate(ctx, ev.UserID, apply)
	if err != nil {
		s.metrics.WebhookProcessed(webhookMetricType(ev.Type), WebhookOutcomeFailed)
		log.ErrorContext(ctx, "webhook event failed", logger.UserID(ev.UserID), logger.Error(err))
		return nil, err
	}

	s.metrics.WebhookProcessed(webhookMetricType(ev.Type), WebhookOutcomeHandled)
	log.InfoContext(ctx, "webhook event applied",
		logger.UserID(ev.UserID),
		logger.Plan(string(sub.Plan)),
		logger.Status(string(sub.Status)),
	)
	result.Handled = true
	result.Subscription = sub
	return result, nil
}

// webhookTransition maps a processor event to a record mutation, or nil when
// the event type is not one the service reacts to.
func (s *service) webhookTransition(ctx context.Context, ev *WebhookEvent) func(tr *transition) (*ChangeEvent, error) {
	switch ev.Type {
	case WebhookCheckoutCompleted:
		return func(tr *transition) (*ChangeEvent, error) {
			plan, err := purchasablePlan(ev.Plan)
			if err != nil {
				return nil, err
			}
			before := tr.sub.Clone()
			tr.plan = plan
			if err := s.fire(ctx, EventSubscribe, tr); err != nil {
				return nil, err
			}
			return newChangeEvent(ChangeSubscribed, before, tr.sub, SourceWebhook, tr.now), nil
		}

	case WebhookInvoicePaid, WebhookInvoicePaymentSucceeded:
		return func(tr *transition) (*ChangeEvent, error) {
			before := tr.sub.Clone()
			if plan, ok := LookupPlan(ev.Plan); ok && plan.Paid() && plan.Code != tr.sub.Plan {
				tr.sub.switchPlan(plan, tr.now)
			}
			if plan, ok := LookupPlan(tr.sub.Plan); ok && plan.Paid() && tr.sub.PeriodLapsedAt(tr.now) {
				tr.sub.startPeriod(plan, tr.now)
			}
			if tr.sub.Status == StatusActive && before.Plan == tr.sub.Plan &&
				timesEqual(before.CurrentPeriodEnd, tr.sub.CurrentPeriodEnd) {
				return nil, nil
			}
			if err := s.fire(ctx, EventActivate, tr); err != nil {
				return nil, err
			}
			return newChangeEvent(ChangeActivated, before, tr.sub, SourceWebhook, tr.now), nil
		}

	case WebhookInvoicePaymentFailed:
		return func(tr *transition) (*ChangeEvent, error) {
			// Repeated failures keep the original grace deadline, and a
			// canceled subscription is not revived.
			if tr.sub.Status != StatusActive {
				return nil, nil
			}
			before := tr.sub.Clone()
			if err := s.fire(ctx, EventMarkPastDue, tr); err != nil {
				return nil, err
			}
			return newChangeEvent(ChangePastDue, before, tr.sub, SourceWebhook, tr.now), nil
		}

	case WebhookSubscriptionDeleted:
		return func(tr *transition) (*ChangeEvent, error) {
			if tr.sub.Status == StatusCanceled {
				return nil, nil
			}
			before := tr.sub.Clone()
			if err := s.fire(ctx, EventCancel, tr); err != nil {
				return nil, err
			}
			return newChangeEvent(ChangeCanceled, before, tr.sub, SourceWebhook, tr.now), nil
		}
	}
	return nil
}

// webhookMetricType bounds the metric label to the known event types.
func webhookMetricType(eventType string) string {
	switch eventType {
	case WebhookCheckoutCompleted, WebhookInvoicePaid, WebhookInvoicePaymentSucceeded,
		WebhookInvoicePaymentFailed, WebhookSubscriptionDeleted:
		return eventType
	}
	return WebhookTypeOther
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
