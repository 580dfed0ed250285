package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrIntegrationNotFound = errors.New("integration not found")
	ErrIntegrationInactive = errors.New("integration inactive")
	ErrReconnectRequired   = errors.New("reconnect required")

	ErrRateLimited  = errors.New("rate limited")
	ErrUpstream     = errors.New("upstream unavailable")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrCircuitOpen  = errors.New("circuit open")

	ErrSync          = errors.New("sync failed")
	ErrConfiguration = errors.New("invalid configuration")
)

// APIError is a classified marketplace response.
type APIError struct {
	Kind       error
	StatusCode int
	Method     string
	Path       string
	Detail     string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v: %s", e.Method, e.Path, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s %s: %v (status %d): %s", e.Method, e.Path, e.Kind, e.StatusCode, e.Detail)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// Retryable reports whether the request may be repeated as-is.
func (e *APIError) Retryable() bool {
	return errors.Is(e.Kind, ErrRateLimited) || errors.Is(e.Kind, ErrUpstream)
}

// ClassifyStatus maps an HTTP status code to the error taxonomy.
func ClassifyStatus(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return ErrUpstream
	case code >= 400:
		return ErrBadRequest
	default:
		return nil
	}
}

// TokenError reports a failed refresh or malformed credentials.
// The integration needs to be reconnected by the tenant.
type TokenError struct {
	IntegrationID int64
	Reason        string
	Err           error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("integration %d: token: %s", e.IntegrationID, e.Reason)
}

func (e *TokenError) Unwrap() []error {
	return []error{ErrReconnectRequired, e.Err}
}
