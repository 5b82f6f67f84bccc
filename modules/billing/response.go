package billing

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/innerbloom/billing/pkg/billing"
	"github.com/innerbloom/billing/pkg/logger"
	"github.com/innerbloom/billing/pkg/validator"
)

// Response is the JSON envelope for every endpoint.
type Response struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// Codes produced by the HTTP layer itself.
const (
	codeRateLimited = "rate_limited"
	codeNotFound    = "not_found"
	codeNotAllowed  = "method_not_allowed"
)

// HTTPStatus maps a billing error code to a response status.
func HTTPStatus(code billing.Code) int {
	switch code {
	case billing.CodeInvalidPlanSelection, billing.CodeInvalidSignature:
		return http.StatusBadRequest
	case billing.CodeInvalidOperation:
		return http.StatusConflict
	case billing.CodeProviderNotReady:
		return http.StatusNotImplemented
	case billing.CodeUnauthenticated:
		return http.StatusUnauthorized
	case billing.CodeValidationFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Data: data})
}

func respondCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Response{Error: &ErrorDetail{Code: code, Message: message}})
}

// respondError renders err and logs it. Internal failures never leak their
// cause to the client.
func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	code := billing.CodeOf(err)
	status := HTTPStatus(code)

	detail := &ErrorDetail{Code: string(code), Message: "internal server error"}
	var berr *billing.Error
	if errors.As(err, &berr) {
		detail.Message = berr.Message
	}
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		detail.Details = ve.Fields()
	}

	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		log.ErrorContext(r.Context(), "billing request failed",
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
	} else {
		log.DebugContext(r.Context(), "billing request rejected",
			slog.String("path", r.URL.Path),
			slog.String("code", string(code)),
			logger.Error(err),
		)
	}

	writeJSON(w, status, Response{Error: detail})
}
