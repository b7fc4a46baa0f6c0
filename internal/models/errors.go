package models

import (
	"errors"
	"fmt"
)

// ErrKind is the stable error taxonomy every engine operation classifies
// its failures into (spec §7). Transport layers map these to status codes;
// the engine itself never speaks HTTP.
type ErrKind string

const (
	ErrBadRequest      ErrKind = "bad_request"
	ErrBadTarget       ErrKind = "bad_target"
	ErrNotFound        ErrKind = "not_found"
	ErrOverlap         ErrKind = "overlap"
	ErrConflict        ErrKind = "conflict"
	ErrOverflow        ErrKind = "overflow"
	ErrFeatureDisabled ErrKind = "feature_disabled"
	ErrUnavailable     ErrKind = "unavailable"
	ErrInternal        ErrKind = "internal"
)

// ServiceError carries a stable Kind alongside a human-readable message, so
// callers can branch on Kind without parsing strings.
type ServiceError struct {
	Kind    ErrKind
	Message string
	Err     error // wrapped cause, if any
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, &ServiceError{Kind: ErrNotFound}) style checks
// against Kind alone.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds a ServiceError of the given kind with a formatted message.
func NewError(kind ErrKind, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a ServiceError of the given kind wrapping an underlying
// cause, typically a storage error surfaced unchanged from the Library DB
// Adapter or the Action Log Store.
func WrapError(kind ErrKind, err error, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the ErrKind of err if it is (or wraps) a *ServiceError,
// defaulting to ErrInternal for anything else — every unclassified storage
// error is treated as internal per spec §7.
func KindOf(err error) ErrKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ErrInternal
}
