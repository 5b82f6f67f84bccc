// Package validator provides composable validation rules for request
// payloads.
//
//	err := validator.Apply(
//		validator.InList("plan", req.Plan, billing.PlanCodes()),
//		validator.MaxLenString("reason", req.Reason, 500),
//	)
//
// Apply returns ValidationErrors listing every failed rule, so clients get
// all field problems in one response.
package validator
