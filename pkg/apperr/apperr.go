// Package apperr defines the error taxonomy shared by every domain
// service. All outcomes are terminal and non-retryable; handlers map
// them to HTTP statuses with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound means the entity id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller lacks the required relationship to
	// the entity (not the owner, no live grant, and so on).
	ErrForbidden = errors.New("forbidden")
	// ErrConflict means a duplicate registration was attempted.
	ErrConflict = errors.New("already registered")
	// ErrAlreadyResolved means a status transition was attempted on a
	// share request that is no longer pending.
	ErrAlreadyResolved = errors.New("request already resolved")
	// ErrExpired means a time-bound check failed.
	ErrExpired = errors.New("expired")
	// ErrUnregistered means the caller has no patient or provider profile.
	ErrUnregistered = errors.New("caller not registered")
	// ErrInvalidInput means the request payload failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Wrap annotates err with context while keeping it matchable via errors.Is.
func Wrap(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}

// HTTPStatus maps a service error onto the status code the API reports.
// Unknown errors are treated as internal failures.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrUnregistered):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, ErrExpired):
		return http.StatusGone
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
