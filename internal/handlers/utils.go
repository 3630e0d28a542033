package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cinescope/apiserver/internal/logging"
	"github.com/cinescope/apiserver/internal/services"
	"github.com/cinescope/apiserver/internal/validation"
	"github.com/cinescope/apiserver/types"
	"github.com/goccy/go-json"
)

const maxJSONBody = 1 << 20

type contextKey string

const contextClaimsKey contextKey = "claims"

// ErrorResponse is the error payload of every failed request. Message is a
// string, or a list of strings for validation failures.
type ErrorResponse struct {
	StatusCode int                     `json:"statusCode"`
	Message    any                     `json:"message"`
	Error      string                  `json:"error"`
	Details    []validation.FieldError `json:"details,omitempty"`
}

func claimsFromContext(ctx context.Context) (types.Claims, bool) {
	claims, ok := ctx.Value(contextClaimsKey).(types.Claims)
	return claims, ok && claims.Subject != ""
}

func withClaims(ctx context.Context, claims types.Claims) context.Context {
	return context.WithValue(ctx, contextClaimsKey, claims)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

func writeValidationError(w http.ResponseWriter, verr *validation.Error) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Message:    verr.Messages(),
		Error:      http.StatusText(http.StatusBadRequest),
		Details:    verr.Fields,
	})
}

// writeServiceError maps a service error onto its HTTP status. Anything
// outside the known categories is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr)
	case errors.Is(err, services.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeAndValidate reads a JSON body into dst and runs its validation rules.
// On failure it writes the response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validation.Struct(dst); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return false
		}
		writeServiceError(w, r, err)
		return false
	}
	return true
}

// parsePage reads the page query parameter. Missing or malformed values
// fall back to 1.
func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("page")))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func parsePositiveInt64(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
