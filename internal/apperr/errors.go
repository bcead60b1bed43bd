// Package apperr defines the error taxonomy shared by the REST and
// websocket surfaces. Every failure leaving a service is wrapped around
// one of the sentinel kinds below so handlers can map it to a status
// code without inspecting storage details.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalid     = errors.New("invalid request")
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrConflict    = errors.New("conflict")
	ErrRateLimited = errors.New("rate limited")
	ErrTransient   = errors.New("transient failure")
	// ErrFatal marks an invariant violation, e.g. an attempt to
	// reactivate a banned membership. Operations that would produce one
	// are rejected, never applied.
	ErrFatal = errors.New("invariant violation")
)

// Invalid wraps a reason as an invalid-request error.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// NotFound wraps a reason as a not-found error.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Forbidden wraps a reason as a forbidden error.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Conflict wraps a reason as a conflict error.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// RateLimited wraps a reason as a rate-limited error.
func RateLimited(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRateLimited, fmt.Sprintf(format, args...))
}

// Fatal wraps a reason as an invariant violation.
func Fatal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFatal, fmt.Sprintf(format, args...))
}

// Transient converts a storage or timeout failure into a retryable
// error without leaking driver detail to the caller.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: storage unavailable", ErrTransient)
}

// IsTimeout reports whether err is a context deadline or cancellation.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// HTTPStatus maps an error to its HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Reason returns the message shown to clients. Unclassified errors
// collapse to a generic reason so internals never leak.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTransient):
		return "temporary failure, please retry"
	case errors.Is(err, ErrInvalid),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrRateLimited):
		return err.Error()
	default:
		return "internal error"
	}
}
