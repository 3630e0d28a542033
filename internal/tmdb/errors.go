package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is matched by an APIError carrying a 404.
	ErrNotFound = errors.New("tmdb: resource not found")
	// ErrDisabled is returned when no credential is configured.
	ErrDisabled = errors.New("tmdb: no api key or access token configured")
)

// APIError is a non-2xx TMDB response.
type APIError struct {
	StatusCode    int    `json:"-"`
	Code          int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func (e *APIError) Error() string {
	if e.StatusMessage != "" {
		return fmt.Sprintf("tmdb: HTTP %d: %s", e.StatusCode, e.StatusMessage)
	}
	return fmt.Sprintf("tmdb: HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// transient reports whether err should count against the circuit breaker.
// Cancellation by the caller says nothing about TMDB health.
func transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}
