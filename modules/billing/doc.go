// Package billing mounts the billing HTTP API.
//
// Every response is a JSON envelope with either a data or an error member.
// Billing error codes map to statuses through HTTPStatus.
//
//	r.Mount("/billing", billing.Router(svc, billing.RouterOptions{
//		Verifier: verifier,
//		Logger:   log,
//	}))
package billing
