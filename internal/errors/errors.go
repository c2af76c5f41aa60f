// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrDataNotFound       = errors.New("data not found")
	ErrTradeNotFound      = errors.New("trade not found")
	ErrDuplicateTrade     = errors.New("trade already exists")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrDatabaseError      = errors.New("database error")
	ErrInputValidation    = errors.New("input validation failed")
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrUnknownGranularity = errors.New("unknown goal granularity")
	ErrUnknownDimension   = errors.New("unknown breakdown dimension")
)

// StoreError represents a failure in a persistence backend.
type StoreError struct {
	Backend string
	Op      string
	Key     string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store error [%s] %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store error [%s] %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(backend, op, key string, err error) *StoreError {
	return &StoreError{
		Backend: backend,
		Op:      op,
		Key:     key,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets callers match any ValidationError with ErrInputValidation.
func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ImportError represents a failure while reading a snapshot.
type ImportError struct {
	Format string
	Line   int
	Err    error
}

func (e *ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("import error [%s] line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("import error [%s]: %v", e.Format, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// NewImportError creates a new ImportError.
func NewImportError(format string, line int, err error) *ImportError {
	return &ImportError{
		Format: format,
		Line:   line,
		Err:    err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
