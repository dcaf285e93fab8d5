package common

import (
	"errors"
	"fmt"
)

// Common error types used across the application
var (
	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")
	// ErrNetworkFailure indicates network connectivity issues
	ErrNetworkFailure = errors.New("network failure")
	// ErrAuthenticationFailed indicates remote login was rejected
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrInvalidConfiguration indicates configuration issues
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrSizeMismatch indicates a transferred file failed size verification
	ErrSizeMismatch = errors.New("transferred size mismatch")
)

// WrapError wraps an error with additional context information
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context information
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message
func NewError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// ValidationError represents validation errors with field-specific information
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ConfigurationError represents configuration-related errors
type ConfigurationError struct {
	Section string
	Field   string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Section != "" && e.Field != "" {
		return fmt.Sprintf("configuration error in section '%s', field '%s': %s", e.Section, e.Field, e.Reason)
	} else if e.Section != "" {
		return fmt.Sprintf("configuration error in section '%s': %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(section, field, reason string) *ConfigurationError {
	return &ConfigurationError{
		Section: section,
		Field:   field,
		Reason:  reason,
	}
}

// TransferError represents a failure of a single remote file operation.
// It carries the remote identity so callers can fold it into per-file results.
type TransferError struct {
	Operation string // "list", "download", "upload"
	Folder    string
	Filename  string
	Wrapped   error
}

func (e *TransferError) Error() string {
	if e.Folder != "" {
		return fmt.Sprintf("%s failed for '%s/%s': %v", e.Operation, e.Folder, e.Filename, e.Wrapped)
	}
	return fmt.Sprintf("%s failed for '%s': %v", e.Operation, e.Filename, e.Wrapped)
}

func (e *TransferError) Unwrap() error {
	return e.Wrapped
}

// NewTransferError creates a new transfer error
func NewTransferError(operation, folder, filename string, wrapped error) *TransferError {
	return &TransferError{
		Operation: operation,
		Folder:    folder,
		Filename:  filename,
		Wrapped:   wrapped,
	}
}

// FatalError marks an error as non-retryable regardless of remaining attempt budget.
type FatalError struct {
	Wrapped error
}

func (e *FatalError) Error() string {
	return e.Wrapped.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Wrapped
}

// NewFatalError wraps an error so retry policies give up immediately
func NewFatalError(err error) *FatalError {
	return &FatalError{Wrapped: err}
}

// IsFatal reports whether err (or anything it wraps) is marked fatal
// or belongs to a class that never succeeds on retry.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		return true
	}
	return errors.Is(err, ErrAuthenticationFailed) ||
		errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrNotFound)
}
