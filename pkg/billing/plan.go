package billing

import (
	"slices"
	"time"
)

// Plan describes a catalog entry.
type Plan struct {
	Code           PlanCode `json:"code"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Price          Money    `json:"price"`
	IntervalMonths int      `json:"interval_months"`
	Features       []string `json:"features"`
}

// Paid reports whether the plan has a billing period.
func (p Plan) Paid() bool {
	return p.IntervalMonths > 0
}

// PeriodEnd returns the end of a billing period starting at start.
// Months are added in UTC; a day that does not exist in the target month is
// clamped to that month's last day, so Jan 31 + 1 month is Feb 28 (or 29).
func (p Plan) PeriodEnd(start time.Time) time.Time {
	return addMonths(start.UTC(), p.IntervalMonths)
}

var catalog = []Plan{
	{
		Code:           PlanFree,
		Name:           "Free",
		Description:    "Core habit tracking for everyone.",
		Price:          Money{Amount: 0, Currency: CurrencyUSD},
		IntervalMonths: 0,
		Features: []string{
			"Unlimited habits and daily tasks",
			"XP and leveling",
			"Daily mood and energy check-ins",
		},
	},
	{
		Code:           PlanMonth,
		Name:           "Monthly",
		Description:    "Full access, billed every month.",
		Price:          Money{Amount: 499, Currency: CurrencyUSD},
		IntervalMonths: 1,
		Features: []string{
			"Everything in Free",
			"Weekly wellness summaries",
			"Advanced streak insights",
			"Custom reminders",
		},
	},
	{
		Code:           PlanSixMonths,
		Name:           "Six months",
		Description:    "Full access, billed every six months.",
		Price:          Money{Amount: 2499, Currency: CurrencyUSD},
		IntervalMonths: 6,
		Features: []string{
			"Everything in Monthly",
			"Save over 15% compared to monthly",
		},
	},
	{
		Code:           PlanYear,
		Name:           "Yearly",
		Description:    "Full access, billed once a year.",
		Price:          Money{Amount: 3999, Currency: CurrencyUSD},
		IntervalMonths: 12,
		Features: []string{
			"Everything in Monthly",
			"Save over 30% compared to monthly",
			"Early access to new features",
		},
	},
}

// Catalog returns a copy of the static plan catalog.
func Catalog() []Plan {
	out := make([]Plan, len(catalog))
	for i, p := range catalog {
		p.Features = slices.Clone(p.Features)
		out[i] = p
	}
	return out
}

// LookupPlan returns the catalog entry for code.
func LookupPlan(code PlanCode) (Plan, bool) {
	for _, p := range catalog {
		if p.Code == code {
			p.Features = slices.Clone(p.Features)
			return p, true
		}
	}
	return Plan{}, false
}

func addMonths(t time.Time, months int) time.Time {
	if months == 0 {
		return t
	}
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}
