package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/subshift/subshift/pkg/migrate"
	"github.com/subshift/subshift/pkg/reddit"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON serializes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeError emits the standard error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error: errorBody{
			Code:    code,
			Message: message,
		},
	})
}

// writeMappedError translates service errors into HTTP responses. Upstream
// Reddit failures surface as 502 so callers can tell them apart from our
// own errors.
func writeMappedError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &validationErrs),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		writeError(w, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
	case errors.Is(err, migrate.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case reddit.IsAuth(err):
		writeError(w, http.StatusUnauthorized, "CREDENTIAL_REJECTED", err.Error())
	case reddit.IsRateLimited(err):
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", err.Error())
	case errors.Is(err, reddit.ErrBudgetExhausted):
		writeError(w, http.StatusTooManyRequests, "BUDGET_EXHAUSTED", err.Error())
	default:
		var apiErr *reddit.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
