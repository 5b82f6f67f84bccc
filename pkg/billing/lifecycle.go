package billing

import (
	"context"
	"time"

	"github.com/innerbloom/billing/pkg/statemachine"
)

// Event names a lifecycle transition.
type Event string

const (
	EventSubscribe   Event = "subscribe"
	EventActivate    Event = "activate"
	EventMarkPastDue Event = "mark_past_due"
	EventCancel      Event = "cancel"
	EventReactivate  Event = "reactivate"
	EventExpireGrace Event = "expire_grace"
)

// transition carries the record being mutated through guards and actions.
type transition struct {
	sub  *Subscription
	now  time.Time
	plan Plan
}

// Lifecycle returns the subscription transition table.
// The table is stateless; the current status is always supplied by the caller.
func Lifecycle() *statemachine.Table[Status, Event] {
	b := statemachine.NewBuilder[Status, Event]()

	for _, from := range statuses {
		b.From(from).When(EventSubscribe).To(StatusActive).Action(applySubscribe).Add()
		b.From(from).When(EventActivate).To(StatusActive).Action(applyActivate).Add()
		b.From(from).When(EventMarkPastDue).To(StatusPastDue).Action(applyPastDue).Add()
		b.From(from).When(EventCancel).To(StatusCanceled).Action(applyCancel).Add()
	}

	b.From(StatusCanceled).When(EventReactivate).To(StatusActive).Action(applyReactivate).Add()

	b.From(StatusPastDue).When(EventExpireGrace).To(StatusCanceled).
		Guard(graceElapsed).
		Action(applyCancel)

	return b.Build()
}

func graceElapsed(_ context.Context, _ Status, _ Event, data any) bool {
	tr, ok := data.(*transition)
	return ok && tr.sub.GraceExpiredAt(tr.now)
}

func applySubscribe(_ context.Context, _, _ Status, _ Event, data any) error {
	tr := data.(*transition)
	tr.sub.Plan = tr.plan.Code
	tr.sub.startPeriod(tr.plan, tr.now)
	tr.sub.CancelAtPeriodEnd = false
	tr.sub.CanceledAt = nil
	tr.sub.GracePeriodEndsAt = nil
	return nil
}

func applyActivate(_ context.Context, _, _ Status, _ Event, data any) error {
	tr := data.(*transition)
	tr.sub.CancelAtPeriodEnd = false
	tr.sub.CanceledAt = nil
	tr.sub.GracePeriodEndsAt = nil
	return nil
}

func applyPastDue(_ context.Context, _, _ Status, _ Event, data any) error {
	tr := data.(*transition)
	grace := tr.now.Add(GracePeriod)
	tr.sub.PastDueMarkedAt = timePtr(tr.now)
	tr.sub.GracePeriodEndsAt = &grace
	tr.sub.CanceledAt = nil
	return nil
}

func applyCancel(_ context.Context, _, _ Status, _ Event, data any) error {
	tr := data.(*transition)
	tr.sub.CanceledAt = timePtr(tr.now)
	tr.sub.CancelAtPeriodEnd = false
	tr.sub.GracePeriodEndsAt = nil
	return nil
}

// applyReactivate keeps a still running period for the same plan and opens
// a new one otherwise.
func applyReactivate(_ context.Context, _, _ Status, _ Event, data any) error {
	tr := data.(*transition)
	if tr.plan.Code != tr.sub.Plan || tr.sub.PeriodLapsedAt(tr.now) {
		tr.sub.startPeriod(tr.plan, tr.now)
	}
	tr.sub.Plan = tr.plan.Code
	tr.sub.CancelAtPeriodEnd = false
	tr.sub.CanceledAt = nil
	tr.sub.GracePeriodEndsAt = nil
	return nil
}
