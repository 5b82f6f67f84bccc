package billing

import (
	"strings"

	"github.com/innerbloom/billing/pkg/validator"
)

// MaxCancelReasonLength bounds the free-form cancellation reason.
const MaxCancelReasonLength = 500

// SubscribeRequest starts a paid plan.
type SubscribeRequest struct {
	Plan PlanCode `json:"plan"`
}

func (r SubscribeRequest) Validate() error {
	return validator.Apply(
		validator.InList("plan", r.Plan, PlanCodes()),
	)
}

// ChangePlanRequest replaces the plan and optionally forces a status.
type ChangePlanRequest struct {
	Plan   PlanCode `json:"plan"`
	Status *Status  `json:"status,omitempty"`
}

func (r ChangePlanRequest) Validate() error {
	rules := []validator.Rule{
		validator.InList("plan", r.Plan, PlanCodes()),
	}
	if r.Status != nil {
		rules = append(rules, validator.InList("status", *r.Status, Statuses()))
	}
	return validator.Apply(rules...)
}

// CancelRequest cancels immediately. Reason is passed through to logs and
// events only.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (r CancelRequest) Validate() error {
	return validator.Apply(
		validator.MaxLenString("reason", r.Reason, MaxCancelReasonLength),
	)
}

// ReactivateRequest restores a canceled subscription. A nil Plan keeps the
// previous plan.
type ReactivateRequest struct {
	Plan *PlanCode `json:"plan,omitempty"`
}

func (r ReactivateRequest) Validate() error {
	if r.Plan == nil {
		return nil
	}
	return validator.Apply(
		validator.InList("plan", *r.Plan, PlanCodes()),
	)
}

// CheckoutRequest asks the provider for a hosted checkout page.
type CheckoutRequest struct {
	Plan       PlanCode `json:"plan"`
	Email      string   `json:"email,omitempty"`
	SuccessURL string   `json:"success_url,omitempty"`
	CancelURL  string   `json:"cancel_url,omitempty"`
}

func (r CheckoutRequest) Validate() error {
	rules := []validator.Rule{
		validator.InList("plan", r.Plan, PlanCodes()),
	}
	if strings.TrimSpace(r.Email) != "" {
		rules = append(rules, validator.ValidEmail("email", r.Email))
	}
	if r.SuccessURL != "" {
		rules = append(rules, validator.ValidURL("success_url", r.SuccessURL))
	}
	if r.CancelURL != "" {
		rules = append(rules, validator.ValidURL("cancel_url", r.CancelURL))
	}
	return validator.Apply(rules...)
}

// PortalRequest asks the provider for a customer portal session.
type PortalRequest struct {
	ReturnURL string `json:"return_url,omitempty"`
}

func (r PortalRequest) Validate() error {
	if r.ReturnURL == "" {
		return nil
	}
	return validator.Apply(
		validator.ValidURL("return_url", r.ReturnURL),
	)
}

type validatable interface {
	Validate() error
}

func validate(req validatable) error {
	if err := req.Validate(); err != nil {
		return newError(CodeValidationFailed, "request validation failed", err)
	}
	return nil
}
