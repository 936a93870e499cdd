package common

import (
	"errors"
	"fmt"
)

// Error kinds shared by services, the batch processor and handlers.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrValidation         = errors.New("validation failed")
	ErrRenderFailure      = errors.New("render failure")
	ErrDeliveryFailure    = errors.New("delivery failure")
	ErrAllocationConflict = errors.New("invoice number allocation conflict")
	ErrUnauthorized       = errors.New("unauthorized")
)

// OperationError attaches the failing operation and an error kind to a cause.
type OperationError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OperationError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *OperationError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Wrap returns an OperationError, or nil when err is nil.
func Wrap(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Op: op, Kind: kind, Err: err}
}

// NotFound reports a missing resource.
func NotFound(resource string) error {
	return &OperationError{Op: "get " + resource, Kind: ErrNotFound}
}

// InvalidState reports a forbidden transition or operation for the current status.
func InvalidState(format string, args ...any) error {
	return &OperationError{Op: fmt.Sprintf(format, args...), Kind: ErrInvalidState}
}

// Validation reports a bad field value.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ValidationError carries the offending field so handlers can report it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
