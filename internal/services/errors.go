package services

import (
	"errors"
	"fmt"

	"github.com/cinescope/apiserver/internal/store"
)

// Error categories. Every error returned by a service for a domain failure
// unwraps to exactly one of these.
var (
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = store.ErrNotFound
	ErrBadRequest   = errors.New("bad request")
	ErrUnavailable  = errors.New("unavailable")
)

type domainError struct {
	kind error
	msg  string
}

func (e *domainError) Error() string { return e.msg }
func (e *domainError) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...any) error {
	return &domainError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

var (
	ErrEmailTaken         = newError(ErrConflict, "Email already exists")
	ErrUsernameTaken      = newError(ErrConflict, "Username already exists")
	ErrInvalidCredentials = newError(ErrUnauthorized, "Invalid credentials")
	ErrInactiveAccount    = newError(ErrUnauthorized, "Account is inactive")
	ErrInvalidToken       = newError(ErrUnauthorized, "Invalid or expired token")
	ErrUserNotFound       = newError(ErrNotFound, "User not found")
	ErrWrongPassword      = newError(ErrBadRequest, "Current password is incorrect")
	ErrSamePassword       = newError(ErrBadRequest, "New password must be different from current password")
	ErrInvalidContentType = newError(ErrBadRequest, "contentType must be one of: movie, tv")
	ErrUnsupportedImage   = newError(ErrBadRequest, "Profile picture must be a jpeg, png, webp or gif image")
	ErrImageTooLarge      = newError(ErrBadRequest, "Profile picture exceeds the size limit")
	ErrUploadsDisabled    = newError(ErrUnavailable, "Profile picture uploads are not configured")
	ErrInvalidReviewID    = newError(ErrBadRequest, "Validation failed (uuid is expected)")

	errNoPicture = newError(ErrNotFound, "No uploaded profile picture")
)
