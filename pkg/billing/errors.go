package billing

import (
	"errors"
	"fmt"
)

// Code is a stable, machine readable error kind.
type Code string

const (
	CodeInvalidPlanSelection Code = "invalid_plan_selection"
	CodeInvalidOperation     Code = "invalid_operation"
	CodeInvalidSignature     Code = "invalid_signature"
	CodeProviderNotReady     Code = "provider_not_ready"
	CodeUnauthenticated      Code = "unauthenticated"
	CodeValidationFailed     Code = "validation_failed"
	CodeInternal             Code = "internal_error"
)

// Error is the structured error returned by billing operations.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so the package sentinels work
// with errors.Is regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidPlanSelection = &Error{Code: CodeInvalidPlanSelection, Message: "invalid plan selection"}
	ErrInvalidOperation     = &Error{Code: CodeInvalidOperation, Message: "operation not allowed in current state"}
	ErrInvalidSignature     = &Error{Code: CodeInvalidSignature, Message: "invalid webhook signature"}
	ErrProviderNotReady     = &Error{Code: CodeProviderNotReady, Message: "payment provider integration is not ready"}
	ErrUnauthenticated      = &Error{Code: CodeUnauthenticated, Message: "authentication required"}
	ErrValidationFailed     = &Error{Code: CodeValidationFailed, Message: "request validation failed"}
)

// Plain sentinels for store and configuration failures.
var (
	ErrSubscriptionNotFound = errors.New("billing subscription not found")
	ErrMissingWebhookSecret = errors.New("billing provider webhook secret is required")
	ErrUnknownProvider      = errors.New("unknown billing provider")
	ErrMalformedEvent       = errors.New("malformed webhook event")
)

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// CodeOf returns the Code carried by err, or CodeInternal when err is not a
// billing error. CodeOf(nil) returns "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
