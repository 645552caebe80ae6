// Package errors provides structured error types for the templink engine
// with error categories, component context, and wrapping support.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	// ErrorTypeValidation covers invalid arguments to public entry points.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeAffinity covers entry points invoked off the owning
	// goroutine. Affinity violations are caller bugs and never recoverable.
	ErrorTypeAffinity ErrorType = "affinity"
	// ErrorTypeSubscription covers failed change-source registration or
	// unregistration.
	ErrorTypeSubscription ErrorType = "subscription"
	// ErrorTypeParser covers documents missing their parser collaborator.
	ErrorTypeParser ErrorType = "parser"
	// ErrorTypeIO covers file-system failures.
	ErrorTypeIO ErrorType = "io"
	// ErrorTypeConfig covers configuration loading failures.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInternal covers invariant violations inside the engine.
	ErrorTypeInternal ErrorType = "internal"
)

// TrackerError is a structured error type carrying the failing component and
// operation alongside the underlying cause.
type TrackerError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Component   string
	Op          string
	Path        string
	Recoverable bool
}

// Error implements the error interface.
func (e *TrackerError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.Op != "" {
		parts = append(parts, "op:"+e.Op)
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *TrackerError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *TrackerError) Is(target error) bool {
	var t *TrackerError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithPath adds the file path the error relates to.
func (e *TrackerError) WithPath(path string) *TrackerError {
	e.Path = path

	return e
}

// WithComponent adds component context.
func (e *TrackerError) WithComponent(component string) *TrackerError {
	e.Component = component

	return e
}

// NewInvalidArgumentError creates a validation error for a bad argument to a
// public entry point.
func NewInvalidArgumentError(op, message string) *TrackerError {
	return &TrackerError{
		Type:        ErrorTypeValidation,
		Code:        "invalid_argument",
		Message:     message,
		Op:          op,
		Recoverable: true,
	}
}

// NewAffinityError creates an owning-goroutine violation error.
func NewAffinityError(component, op string) *TrackerError {
	return &TrackerError{
		Type:        ErrorTypeAffinity,
		Code:        "thread_affinity",
		Message:     "called off the owning goroutine",
		Component:   component,
		Op:          op,
		Recoverable: false,
	}
}

// NewSubscriptionError wraps a change-source registration or unregistration
// failure with the failing component and operation.
func NewSubscriptionError(component, op string, cause error) *TrackerError {
	return &TrackerError{
		Type:        ErrorTypeSubscription,
		Code:        "subscription_failed",
		Message:     "change source subscription failed",
		Cause:       cause,
		Component:   component,
		Op:          op,
		Recoverable: true,
	}
}

// NewMissingParserError creates an error for a document without its expected
// parser collaborator.
func NewMissingParserError(docPath string) *TrackerError {
	return &TrackerError{
		Type:        ErrorTypeParser,
		Code:        "missing_parser",
		Message:     "document has no parser collaborator",
		Path:        docPath,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *TrackerError {
	return &TrackerError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *TrackerError {
	return &TrackerError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal invariant-violation error.
func NewInternalError(code, message string, cause error) *TrackerError {
	return &TrackerError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var te *TrackerError
	if errors.As(err, &te) {
		return te.Recoverable
	}

	return false
}

// IsSubscriptionError checks if an error came from change-source
// registration.
func IsSubscriptionError(err error) bool {
	var te *TrackerError
	if errors.As(err, &te) {
		return te.Type == ErrorTypeSubscription
	}

	return false
}

// IsAffinityError checks if an error is an owning-goroutine violation.
func IsAffinityError(err error) bool {
	var te *TrackerError
	if errors.As(err, &te) {
		return te.Type == ErrorTypeAffinity
	}

	return false
}
