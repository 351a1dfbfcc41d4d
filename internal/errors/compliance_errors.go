package errors

import (
	"fmt"
)

// ErrorCategory represents the classes of failure the compliance core distinguishes
type ErrorCategory string

const (
	// Hard errors surfaced to the caller
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	ErrorCategoryConfig     ErrorCategory = "CONFIG"

	// Durability errors on the primary audit store; logged, not propagated
	ErrorCategoryDurability ErrorCategory = "DURABILITY"

	// Best-effort paths whose failures are always swallowed
	ErrorCategorySecondary    ErrorCategory = "SECONDARY"
	ErrorCategoryNotification ErrorCategory = "NOTIFICATION"
)

// ComplianceError is a categorized error with component and operation context
type ComplianceError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *ComplianceError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *ComplianceError) Unwrap() error {
	return e.Underlying
}

// IsValidation reports whether this is an input-validation failure
func (e *ComplianceError) IsValidation() bool {
	return e.Category == ErrorCategoryValidation
}

// IsBestEffort reports whether the failing path is one whose errors
// must never propagate to the caller
func (e *ComplianceError) IsBestEffort() bool {
	return e.Category == ErrorCategorySecondary || e.Category == ErrorCategoryNotification
}

// New creates a new categorized compliance error
func New(category ErrorCategory, component, operation, message string) *ComplianceError {
	return &ComplianceError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with compliance error context
func Wrap(err error, category ErrorCategory, component, operation string) *ComplianceError {
	if err == nil {
		return nil
	}

	return &ComplianceError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *ComplianceError) WithContext(key string, value interface{}) *ComplianceError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewValidationError creates a non-retryable input validation error
func NewValidationError(component, operation, message string) *ComplianceError {
	return New(ErrorCategoryValidation, component, operation, message)
}

// NewConfigError creates a configuration error
func NewConfigError(component, operation, message string) *ComplianceError {
	return New(ErrorCategoryConfig, component, operation, message)
}

// NewDurabilityError wraps a primary-store write failure
func NewDurabilityError(component, operation string, err error) *ComplianceError {
	return Wrap(err, ErrorCategoryDurability, component, operation)
}

// NewSecondaryError wraps a secondary-store failure
func NewSecondaryError(component, operation string, err error) *ComplianceError {
	return Wrap(err, ErrorCategorySecondary, component, operation)
}

// IsValidationError reports whether err is a validation ComplianceError
func IsValidationError(err error) bool {
	ce, ok := err.(*ComplianceError)
	return ok && ce.IsValidation()
}
