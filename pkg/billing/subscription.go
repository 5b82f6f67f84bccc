package billing

import "time"

// GracePeriod is how long a PAST_DUE subscription keeps access before it is
// canceled automatically.
const GracePeriod = 7 * 24 * time.Hour

// Subscription is the billing record of a single user.
type Subscription struct {
	UserID             string     `json:"user_id"`
	Plan               PlanCode   `json:"plan"`
	Status             Status     `json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CanceledAt         *time.Time `json:"canceled_at"`
	PastDueMarkedAt    *time.Time `json:"past_due_marked_at"`
	GracePeriodEndsAt  *time.Time `json:"grace_period_ends_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewDefaultSubscription returns the FREE/ACTIVE record every user starts with.
func NewDefaultSubscription(userID string, now time.Time) *Subscription {
	return &Subscription{
		UserID:    userID,
		Plan:      PlanFree,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive reports whether the user currently has access to the plan.
// PAST_DUE subscriptions keep access until the grace period ends.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive || s.Status == StatusPastDue
}

// IsCanceled reports whether the subscription is canceled.
func (s *Subscription) IsCanceled() bool {
	return s.Status == StatusCanceled
}

// GraceExpiredAt reports whether the grace period has run out at now.
func (s *Subscription) GraceExpiredAt(now time.Time) bool {
	return s.Status == StatusPastDue &&
		s.GracePeriodEndsAt != nil &&
		!now.Before(*s.GracePeriodEndsAt)
}

// PeriodLapsedAt reports whether the paid period is missing or over at now.
func (s *Subscription) PeriodLapsedAt(now time.Time) bool {
	return s.CurrentPeriodEnd == nil || !now.Before(*s.CurrentPeriodEnd)
}

// Clone returns a deep copy.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	c.CurrentPeriodStart = cloneTime(s.CurrentPeriodStart)
	c.CurrentPeriodEnd = cloneTime(s.CurrentPeriodEnd)
	c.CanceledAt = cloneTime(s.CanceledAt)
	c.PastDueMarkedAt = cloneTime(s.PastDueMarkedAt)
	c.GracePeriodEndsAt = cloneTime(s.GracePeriodEndsAt)
	return &c
}

// startPeriod opens a new billing period for plan at now, or clears the
// period for FREE.
func (s *Subscription) startPeriod(plan Plan, now time.Time) {
	if !plan.Paid() {
		s.CurrentPeriodStart = nil
		s.CurrentPeriodEnd = nil
		return
	}
	end := plan.PeriodEnd(now)
	s.CurrentPeriodStart = timePtr(now)
	s.CurrentPeriodEnd = &end
}

// switchPlan moves to plan without touching status. A running period is kept
// and re-measured with the new interval; a lapsed or missing one restarts at now.
func (s *Subscription) switchPlan(plan Plan, now time.Time) {
	switch {
	case !plan.Paid():
		s.CurrentPeriodStart = nil
		s.CurrentPeriodEnd = nil
	case s.CurrentPeriodStart == nil:
		s.startPeriod(plan, now)
	case plan.Code != s.Plan:
		end := plan.PeriodEnd(*s.CurrentPeriodStart)
		if !now.Before(end) {
			s.startPeriod(plan, now)
		} else {
			s.CurrentPeriodEnd = &end
		}
	case s.PeriodLapsedAt(now):
		s.startPeriod(plan, now)
	}
	s.Plan = plan.Code
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}
