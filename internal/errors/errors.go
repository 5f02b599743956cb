// Package errors provides a lightweight structured error type (DoxBuilderError)
// for category-based classification and exit-code mapping in the CLI and daemon.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a DoxBuilder error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External system integration errors
	CategoryGit     ErrorCategory = "git"
	CategoryDoxygen ErrorCategory = "doxygen"

	// Build and processing errors
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// DoxBuilderError is a structured error with category, retryability, and context
type DoxBuilderError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for DoxBuilderError
type ContextFields map[string]any

// Error implements the error interface
func (e *DoxBuilderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *DoxBuilderError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DoxBuilderError) WithContext(key string, value any) *DoxBuilderError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new DoxBuilderError
func New(category ErrorCategory, severity ErrorSeverity, message string) *DoxBuilderError {
	return &DoxBuilderError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new DoxBuilderError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *DoxBuilderError {
	return &DoxBuilderError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapRetryable creates a new retryable DoxBuilderError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *DoxBuilderError {
	return &DoxBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory reports whether err is a DoxBuilderError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	dbe, ok := err.(*DoxBuilderError)
	return ok && dbe.Category == category
}

// IsRetryable reports whether err is a DoxBuilderError marked retryable.
func IsRetryable(err error) bool {
	dbe, ok := err.(*DoxBuilderError)
	return ok && dbe.Retryable
}

// Convenience constructors for common error patterns

func ConfigNotFound(path string) *DoxBuilderError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *DoxBuilderError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

func DoxyfileMissing(path string) *DoxBuilderError {
	return New(CategoryConfig, SeverityFatal, "doxygen configuration file doesn't exist").
		WithContext("path", path)
}

func GenerationFailed(format string, cause error) *DoxBuilderError {
	return Wrap(cause, CategoryDoxygen, SeverityFatal, "documentation generation failed").
		WithContext("format", format)
}

func BuildFailed(stage string, cause error) *DoxBuilderError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func DaemonError(component string, cause error) *DoxBuilderError {
	return Wrap(cause, CategoryDaemon, SeverityFatal, "daemon component failed").
		WithContext("component", component)
}
