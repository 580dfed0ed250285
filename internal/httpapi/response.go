package httpapi

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"catalog_sync/internal/domain"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// statusFor maps the domain error taxonomy onto HTTP responses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrIntegrationNotFound):
		return http.StatusNotFound, "integration_not_found"
	case errors.Is(err, domain.ErrReconnectRequired),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrIntegrationInactive):
		return http.StatusConflict, "reconnect_required"
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "item_not_found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrRateLimited), errors.Is(err, domain.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "upstream_throttled"
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrSync):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
