// Package apperr defines the error taxonomy surfaced by the access register's
// services. Every error returned by a lifecycle, tenancy, approval or report
// operation is either nil or an *Error whose Kind is one of the sentinels
// below, so callers can branch with errors.Is.
package apperr

import (
	"errors"
	"fmt"

	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrValidation       = errors.New("validation failed")
	ErrInternal         = errors.New("internal error")
)

// Error is a categorized failure. Message is safe to show to callers; Err
// holds the underlying cause, if any, for logs only.
type Error struct {
	Kind    error
	Message string
	// Status is the subject's current status, set for ErrAlreadyProcessed.
	Status models.Status
	Err    error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

// Is matches the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap exposes the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing subject, tenant or user.
func NotFound(format string, args ...interface{}) *Error {
	return newf(ErrNotFound, format, args...)
}

// Conflict reports an already-open session or a duplicate unique field.
func Conflict(format string, args ...interface{}) *Error {
	return newf(ErrConflict, format, args...)
}

// InvalidState reports a transition that is illegal from the current status.
func InvalidState(format string, args ...interface{}) *Error {
	return newf(ErrInvalidState, format, args...)
}

// AlreadyProcessed reports a decision attempted on a visitor that is no longer pending.
func AlreadyProcessed(current models.Status) *Error {
	return &Error{
		Kind:    ErrAlreadyProcessed,
		Message: fmt.Sprintf("already processed: %s", current),
		Status:  current,
	}
}

// Unauthorized reports a tenant mismatch or a missing assignment.
func Unauthorized(format string, args ...interface{}) *Error {
	return newf(ErrUnauthorized, format, args...)
}

// Validation reports malformed input.
func Validation(format string, args ...interface{}) *Error {
	return newf(ErrValidation, format, args...)
}

// Internal wraps an uncategorized failure. The cause never reaches Message.
func Internal(err error) *Error {
	return &Error{Kind: ErrInternal, Message: "internal error", Err: err}
}

// StatusOf returns the status carried by an ErrAlreadyProcessed error.
func StatusOf(err error) (models.Status, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == ErrAlreadyProcessed {
		return e.Status, true
	}
	return "", false
}

// FromStore translates a storage failure about subject (e.g. "vehicle") into
// the taxonomy. Errors that are already categorized pass through.
func FromStore(err error, subject string) error {
	if err == nil {
		return nil
	}
	var e *Error
	switch {
	case errors.As(err, &e):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return NotFound("%s not found", subject)
	case errors.Is(err, storage.ErrDuplicateKey):
		return Conflict("%s already exists", subject)
	default:
		return Internal(err)
	}
}
