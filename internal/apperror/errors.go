package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindInternal      Kind = "internal"
)

// FieldError is used to indicate an error with a specific field of the input.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is the typed error returned by the service layer. Reason is a short
// machine-checkable string safe to show to the caller.
type Error struct {
	Kind   Kind
	Reason string
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or inconsistent input.
func Validation(reason string, fields ...FieldError) error {
	return &Error{Kind: KindValidation, Reason: reason, Fields: fields}
}

// Forbidden reports a missing role, assignment or ownership.
func Forbidden(reason string) error {
	return &Error{Kind: KindAuthorization, Reason: reason}
}

// NotFound reports an unknown id.
func NotFound(reason string) error {
	return &Error{Kind: KindNotFound, Reason: reason}
}

// Conflict reports a state that does not allow the requested operation.
// Fields name the stored values that block it, when there are any.
func Conflict(reason string, fields ...FieldError) error {
	return &Error{Kind: KindConflict, Reason: reason, Fields: fields}
}

// Internal wraps a storage or data integrity failure.
func Internal(reason string, err error) error {
	return &Error{Kind: KindInternal, Reason: reason, Err: err}
}

// As extracts the typed error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err. Untyped errors are internal.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// ReasonOf returns the caller-facing reason of err.
func ReasonOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Reason
	}
	return ""
}
