package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/innerbloom/billing/pkg/logger"
	"github.com/innerbloom/billing/pkg/statemachine"
)

// Service is the billing subscription manager.
type Service interface {
	// ListBillingPlans returns the static plan catalog.
	ListBillingPlans() []Plan

	// GetUserBillingSubscription returns the user's record after grace expiry
	// has been applied, creating the default FREE record on first access.
	GetUserBillingSubscription(ctx context.Context, userID string) (*Subscription, error)

	SubscribeUser(ctx context.Context, userID string, req SubscribeRequest) (*Subscription, error)
	ChangeUserPlan(ctx context.Context, userID string, req ChangePlanRequest) (*Subscription, error)
	CancelUserSubscription(ctx context.Context, userID string, req CancelRequest) (*Subscription, error)
	ReactivateUserSubscription(ctx context.Context, userID string, req ReactivateRequest) (*Subscription, error)

	// Provider interactions
	CreateCheckout(ctx context.Context, userID string, req CheckoutRequest) (*CheckoutSession, error)
	CreatePortal(ctx context.Context, userID string, req PortalRequest) (*PortalSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error)

	ProviderName() string
}

type service struct {
	store     Store
	provider  Provider
	lifecycle *statemachine.Table[Status, Event]
	locks     keyedMutex
	clock     func() time.Time
	logger    *slog.Logger
	publisher Publisher
	metrics   Metrics
}

// NewService creates a Service backed by store and provider.
// Panics if either is nil.
func NewService(store Store, provider Provider, opts ...ServiceOption) Service {
	if store == nil {
		panic("billing: Store is required")
	}
	if provider == nil {
		panic("billing: Provider is required")
	}

	s := &service{
		store:     store,
		provider:  provider,
		lifecycle: Lifecycle(),
		clock:     time.Now,
		logger:    slog.New(slog.DiscardHandler),
		publisher: noopPublisher{},
		metrics:   noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ProviderName() string {
	return s.provider.Name()
}

func (s *service) ListBillingPlans() []Plan {
	return Catalog()
}

func (s *service) GetUserBillingSubscription(ctx context.Context, userID string) (*Subscription, error) {
	return s.mutate(ctx, userID, nil)
}

func (s *service) SubscribeUser(ctx context.Context, userID string, req SubscribeRequest) (*Subscription, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	plan, err := purchasablePlan(req.Plan)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(tr *transition) (*ChangeEvent, error) {
		before := tr.sub.Clone()
		tr.plan = plan
		if err := s.fire(ctx, EventSubscribe, tr); err != nil {
			return nil, err
		}
		return newChangeEvent(ChangeSubscribed, before, tr.sub, SourceAPI, tr.now), nil
	})
}

func (s *service) ChangeUserPlan(ctx context.Context, userID string, req ChangePlanRequest) (*Subscription, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	plan, _ := LookupPlan(req.Plan)

	return s.mutate(ctx, userID, func(tr *transition) (*ChangeEvent, error) {
		before := tr.sub.Clone()
		tr.sub.switchPlan(plan, tr.now)
		tr.sub.UpdatedAt = tr.now

		if req.Status != nil {
			if err := s.fire(ctx, statusEvent(*req.Status), tr); err != nil {
				return nil, err
			}
		}
		return newChangeEvent(ChangePlanChanged, before, tr.sub, SourceAPI, tr.now), nil
	})
}

func (s *service) CancelUserSubscription(ctx context.Context, userID string, req CancelRequest) (*Subscription, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(tr *transition) (*ChangeEvent, error) {
		before := tr.sub.Clone()
		if err := s.fire(ctx, EventCancel, tr); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "subscription canceled",
			logger.UserID(userID),
			logger.Plan(string(tr.sub.Plan)),
			slog.String("reason", req.Reason),
		)
		ev := newChangeEvent(ChangeCanceled, before, tr.sub, SourceAPI, tr.now)
		ev.Reason = req.Reason
		return ev, nil
	})
}

func (s *service) ReactivateUserSubscription(ctx context.Context, userID string, req ReactivateRequest) (*Subscription, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(tr *transition) (*ChangeEvent, error) {
		before := tr.sub.Clone()
		code := tr.sub.Plan
		if req.Plan != nil {
			code = *req.Plan
		}
		tr.plan, _ = LookupPlan(code)
		if err := s.fire(ctx, EventReactivate, tr); err != nil {
			return nil, err
		}
		return newChangeEvent(ChangeReactivated, before, tr.sub, SourceAPI, tr.now), nil
	})
}

func (s *service) CreateCheckout(ctx context.Context, userID string, req CheckoutRequest) (*CheckoutSession, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	plan, err := purchasablePlan(req.Plan)
	if err != nil {
		return nil, err
	}

	// Make sure the record exists before the user leaves for the processor.
	if _, err := s.GetUserBillingSubscription(ctx, userID); err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutParams{
		UserID:     userID,
		Email:      req.Email,
		Plan:       plan,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "checkout session failed",
			logger.UserID(userID),
			logger.Provider(s.provider.Name()),
			logger.Error(err),
		)
		return nil, err
	}
	return session, nil
}

func (s *service) CreatePortal(ctx context.Context, userID string, req PortalRequest) (*PortalSession, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	sub, err := s.GetUserBillingSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreatePortalSession(ctx, PortalParams{
		UserID:       userID,
		ReturnURL:    req.ReturnURL,
		Subscription: sub,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "portal session failed",
			logger.UserID(userID),
			logger.Provider(s.provider.Name()),
			logger.Error(err),
		)
		return nil, err
	}
	return session, nil
}

// mutate runs fn against the user's current record under the per-user lock.
// Grace expiry and lazy creation are applied first and persisted even if fn
// fails. A nil fn only reads. fn returns nil when nothing changed.
// Change events are published after the lock is released.
func (s *service) mutate(ctx context.Context, userID string, fn func(tr *transition) (*ChangeEvent, error)) (*Subscription, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	sub, events, err := s.apply(ctx, userID, fn)
	for _, ev := range events {
		s.publish(ctx, *ev)
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// apply holds the user's lock for the read-modify-write. It returns the
// events of a successful save even when fn failed.
func (s *service) apply(ctx context.Context, userID string, fn func(tr *transition) (*ChangeEvent, error)) (*Subscription, []*ChangeEvent, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	now := s.clock().UTC()
	tr := &transition{now: now}

	var events []*ChangeEvent
	sub, err := s.store.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		sub = NewDefaultSubscription(userID, now)
		events = append(events, newChangeEvent(ChangeCreated, nil, sub, SourceRead, now))
	case err != nil:
		return nil, nil, fmt.Errorf("load subscription: %w", err)
	}
	tr.sub = sub

	if sub.GraceExpiredAt(now) {
		before := sub.Clone()
		if err := s.fire(ctx, EventExpireGrace, tr); err != nil {
			return nil, nil, err
		}
		s.logger.InfoContext(ctx, "grace period expired",
			logger.UserID(userID),
			logger.Plan(string(sub.Plan)),
		)
		events = append(events, newChangeEvent(ChangeGraceExpired, before, sub, SourceRead, now))
	}

	var fnErr error
	if fn != nil {
		var ev *ChangeEvent
		ev, fnErr = fn(tr)
		if fnErr == nil && ev != nil {
			events = append(events, ev)
		}
	}

	if len(events) > 0 {
		sub.UpdatedAt = now
		if err := s.store.Save(ctx, sub); err != nil {
			return nil, nil, fmt.Errorf("save subscription: %w", err)
		}
	}

	if fnErr != nil {
		return nil, events, fnErr
	}
	return sub.Clone(), events, nil
}

// fire moves tr.sub through the lifecycle table.
func (s *service) fire(ctx context.Context, event Event, tr *transition) error {
	from := tr.sub.Status
	to, err := s.lifecycle.Fire(ctx, from, event, tr)
	if err != nil {
		if statemachine.IsNoTransitionAvailableError(err) || statemachine.IsTransitionRejectedError(err) {
			return newError(CodeInvalidOperation,
				fmt.Sprintf("cannot %s a subscription in status %s", event, from), err)
		}
		return err
	}

	tr.sub.Status = to
	tr.sub.UpdatedAt = tr.now
	s.metrics.TransitionRecorded(event, from, to)
	return nil
}

func (s *service) publish(ctx context.Context, ev ChangeEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "failed to publish subscription change",
			logger.Event(ev.RoutingKey()),
			logger.UserID(ev.UserID),
			logger.Error(err),
		)
	}
}

func purchasablePlan(code PlanCode) (Plan, error) {
	plan, ok := LookupPlan(code)
	if !ok || !plan.Paid() {
		return Plan{}, newError(CodeInvalidPlanSelection,
			fmt.Sprintf("plan %s cannot be purchased", code), nil)
	}
	return plan, nil
}

func statusEvent(st Status) Event {
	switch st {
	case StatusPastDue:
		return EventMarkPastDue
	case StatusCanceled:
		return EventCancel
	default:
		return EventActivate
	}
}
