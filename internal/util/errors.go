package util

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the engine, payloads and the CLI
var (
	// ErrInvalidConfig marks a batch request or batch file that cannot run
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTimeout marks a payload that gave up on its own deadline
	ErrTimeout = errors.New("operation timed out")

	// ErrPayloadNotSerializable marks a work item that cannot cross a process boundary
	ErrPayloadNotSerializable = errors.New("payload is not serializable")

	// ErrUnknownPayload marks a payload kind missing from the registry
	ErrUnknownPayload = errors.New("unknown payload kind")

	// ErrWorkerCrashed marks a worker process that exited or broke its stream
	ErrWorkerCrashed = errors.New("worker process crashed")
)

// maxListed caps how many errors MultiError.Error spells out
const maxListed = 10

// MultiError collects independent failures, such as every invalid field of a
// batch file or every failed item of a batch
type MultiError struct {
	Errors []error
}

// Error lists the collected errors, one per line
func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:", len(m.Errors))
	for i, err := range m.Errors {
		if i == maxListed {
			fmt.Fprintf(&sb, "\n  ... and %d more errors", len(m.Errors)-maxListed)
			break
		}
		fmt.Fprintf(&sb, "\n  %d. %v", i+1, err)
	}
	return sb.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add appends err unless it is nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Len returns the number of collected errors
func (m *MultiError) Len() int {
	return len(m.Errors)
}

// ErrorOrNil returns nil when nothing was collected. Use it instead of
// returning m directly so an empty MultiError never becomes a non-nil error.
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// NewMultiError creates a MultiError holding the non-nil entries of errs
func NewMultiError(errs []error) *MultiError {
	m := &MultiError{Errors: make([]error, 0, len(errs))}
	for _, err := range errs {
		m.Add(err)
	}
	return m
}

// CombineErrors returns nil when every err is nil, the error itself when
// exactly one is set and a *MultiError otherwise
func CombineErrors(errs ...error) error {
	m := NewMultiError(errs)
	if m.Len() == 1 {
		return m.Errors[0]
	}
	return m.ErrorOrNil()
}

// ValidationError reports one invalid field of a batch request or batch file
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	if v.Value != nil {
		return fmt.Sprintf("validation failed for field %q (value: %v): %s", v.Field, v.Value, v.Message)
	}
	return fmt.Sprintf("validation failed for field %q: %s", v.Field, v.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidConfig) match validation failures
func (v *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// WrapErrorf annotates err with a formatted prefix, keeping it matchable with
// errors.Is. A nil err stays nil.
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// IsTimeout reports whether err is a payload timeout or an expired context
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsCancelled reports whether err comes from a cancelled context
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsConfigError reports whether err comes from an invalid request or batch file
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// FriendlyError turns err into the message printed by the CLI
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case IsConfigError(err):
		return fmt.Sprintf("Invalid configuration: %v\nCheck the batch file and command-line flags.", err)
	case errors.Is(err, ErrPayloadNotSerializable):
		return "The processes strategy only runs registered payload kinds. Describe the item by kind in a batch file, or pick another strategy."
	case errors.Is(err, ErrWorkerCrashed):
		return "A worker process exited unexpectedly. Run with --verbose to see its output."
	case IsTimeout(err):
		return "Operation timed out. Raise --timeout, or the timeout in the item arguments."
	case IsCancelled(err):
		return "Operation was cancelled."
	default:
		return err.Error()
	}
}
