package billing

import "slices"

// PlanCode identifies a plan in the catalog.
type PlanCode string

const (
	PlanFree      PlanCode = "FREE"
	PlanMonth     PlanCode = "MONTH"
	PlanSixMonths PlanCode = "SIX_MONTHS"
	PlanYear      PlanCode = "YEAR"
)

var planCodes = []PlanCode{PlanFree, PlanMonth, PlanSixMonths, PlanYear}

// PlanCodes returns all known plan codes in catalog order.
func PlanCodes() []PlanCode {
	return slices.Clone(planCodes)
}

// Valid reports whether c is a known plan.
func (c PlanCode) Valid() bool {
	return slices.Contains(planCodes, c)
}

// Paid reports whether c is a purchasable plan.
func (c PlanCode) Paid() bool {
	return c.Valid() && c != PlanFree
}

// Status is the lifecycle status of a subscription.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusPastDue  Status = "PAST_DUE"
	StatusCanceled Status = "CANCELED"
)

var statuses = []Status{StatusActive, StatusPastDue, StatusCanceled}

// Statuses returns all known statuses.
func Statuses() []Status {
	return slices.Clone(statuses)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return slices.Contains(statuses, s)
}

// Money represents a monetary amount in the smallest currency unit.
// For example, $4.99 USD is Amount: 499, Currency: "USD".
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CurrencyUSD is the only currency the catalog is priced in.
const CurrencyUSD = "USD"
