// Package errs defines sentinel errors shared across services and the
// helpers handlers use to turn them into user-facing messages.
package errs

import (
	"errors"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrAccessDenied    = errors.New("access denied")
	ErrConflict        = errors.New("resource conflict")
	ErrTooManyRequests = errors.New("too many requests")
	ErrDeliveryFailed  = errors.New("delivery failed")
)

var sentinels = []error{
	ErrNotFound,
	ErrInvalidInput,
	ErrUnauthorized,
	ErrAccessDenied,
	ErrConflict,
	ErrTooManyRequests,
	ErrDeliveryFailed,
}

// Invalid wraps ErrInvalidInput with a user-facing message.
func Invalid(message string) error {
	return wrap(ErrInvalidInput, message)
}

// Denied wraps ErrAccessDenied with a user-facing message.
func Denied(message string) error {
	return wrap(ErrAccessDenied, message)
}

func wrap(sentinel error, message string) error {
	return &userError{sentinel: sentinel, message: message}
}

type userError struct {
	sentinel error
	message  string
}

func (e *userError) Error() string { return e.sentinel.Error() + ": " + e.message }
func (e *userError) Unwrap() error { return e.sentinel }

// UserMessage strips the sentinel prefix so the response carries only the
// message meant for the caller.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ue *userError
	if errors.As(err, &ue) {
		return ue.message
	}
	msg := err.Error()
	for _, s := range sentinels {
		if prefix := s.Error() + ": "; strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}
