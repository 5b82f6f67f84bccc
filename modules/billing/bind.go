package billing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/innerbloom/billing/pkg/billing"
)

var (
	errUnsupportedMediaType = errors.New("expected application/json body")
	errMalformedBody        = errors.New("malformed JSON body")
	errBodyTooLarge         = errors.New("request body too large")
)

// decodeJSON reads r's body into v. Unknown fields are rejected. An empty
// body leaves v untouched when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64, optional bool) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return bindError(errBodyTooLarge)
		}
		return bindError(err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		if optional {
			return nil
		}
		return bindError(fmt.Errorf("%w: empty body", errMalformedBody))
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return bindError(errUnsupportedMediaType)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return bindError(fmt.Errorf("%w: %v", errMalformedBody, err))
	}
	if dec.More() {
		return bindError(fmt.Errorf("%w: trailing data", errMalformedBody))
	}
	return nil
}

func bindError(cause error) error {
	return &billing.Error{
		Code:    billing.CodeValidationFailed,
		Message: cause.Error(),
		Err:     cause,
	}
}

func readRaw(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, bindError(errBodyTooLarge)
		}
		return nil, bindError(err)
	}
	return body, nil
}
