package moderation

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound         = errors.New("content record not found")
	ErrInvalidTransition      = errors.New("invalid transition")
	ErrValidation             = errors.New("validation failed")
	ErrConcurrentModification = errors.New("record modified concurrently")
)

// ErrorKind classifies a failed operation for callers and bulk results.
type ErrorKind string

const (
	ErrorKindNone                   ErrorKind = ""
	ErrorKindNotFound               ErrorKind = "not_found"
	ErrorKindInvalidTransition      ErrorKind = "invalid_transition"
	ErrorKindValidation             ErrorKind = "validation"
	ErrorKindConcurrentModification ErrorKind = "concurrent_modification"
	ErrorKindCancelled              ErrorKind = "cancelled"
	ErrorKindInternal               ErrorKind = "internal"
)

// KindOf maps an error chain to its ErrorKind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, ErrRecordNotFound):
		return ErrorKindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return ErrorKindInvalidTransition
	case errors.Is(err, ErrValidation):
		return ErrorKindValidation
	case errors.Is(err, ErrConcurrentModification):
		return ErrorKindConcurrentModification
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindCancelled
	default:
		return ErrorKindInternal
	}
}

// NotFoundError names the missing record.
type NotFoundError struct {
	RecordID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content record %q not found", e.RecordID)
}

func (e *NotFoundError) Unwrap() error     { return ErrRecordNotFound }
func (e *NotFoundError) ErrorKind() string { return string(ErrorKindNotFound) }

// TransitionError reports an action that is illegal from the current status.
type TransitionError struct {
	RecordID string
	Current  Status
	Action   Action
	Detail   string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("cannot %s record %q in status %s", e.Action, e.RecordID, e.Current)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *TransitionError) Unwrap() error     { return ErrInvalidTransition }
func (e *TransitionError) ErrorKind() string { return string(ErrorKindInvalidTransition) }

// ValidationError is a caller-correctable input problem. No state is touched.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error     { return ErrValidation }
func (e *ValidationError) ErrorKind() string { return string(ErrorKindValidation) }

// StaleRecordError is returned when the stored version moved between read and write.
type StaleRecordError struct {
	RecordID        string
	ExpectedVersion uint64
}

func (e *StaleRecordError) Error() string {
	return fmt.Sprintf("record %q changed since version %d", e.RecordID, e.ExpectedVersion)
}

func (e *StaleRecordError) Unwrap() error     { return ErrConcurrentModification }
func (e *StaleRecordError) ErrorKind() string { return string(ErrorKindConcurrentModification) }
