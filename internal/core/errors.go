package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatFetch       ErrorCategory = "fetch"       // PR or repository fetch failed
	ErrCatReasoning   ErrorCategory = "reasoning"   // Reasoning capability failed
	ErrCatRender      ErrorCategory = "render"      // Diagram rendering failed
	ErrCatPost        ErrorCategory = "post"        // Report posting failed
	ErrCatAggregation ErrorCategory = "aggregation" // Terminal report invariant violated
	ErrCatValidation  ErrorCategory = "validation"  // Invalid input
	ErrCatCancelled   ErrorCategory = "cancelled"   // Run cancelled, not a failure
	ErrCatState       ErrorCategory = "state"       // Persistence failure
	ErrCatInternal    ErrorCategory = "internal"    // Unexpected internal error
)

// DomainError represents a structured error from the analysis domain.
// It carries everything a stage failure needs to communicate: what
// class of failure, whether the engine may re-invoke the stage, and
// the underlying cause.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrFetch creates a fetch error. Fetch failures are never retryable at
// the engine level: without a diff there is no run.
func ErrFetch(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatFetch,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrReasoning creates a reasoning error, retryable within the stage.
func ErrReasoning(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatReasoning,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrRender creates a diagram rendering error. Non-fatal: the finding
// survives as text-only.
func ErrRender(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatRender,
		Code:      "RENDER_FAILED",
		Message:   message,
		Retryable: false,
	}
}

// ErrPost creates a report posting error. The computed report stays valid.
func ErrPost(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatPost,
		Code:      "POST_FAILED",
		Message:   message,
		Retryable: true,
	}
}

// ErrAggregation creates an aggregation invariant error. This signals a
// router sequencing bug, never expected in a correct run.
func ErrAggregation(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatAggregation,
		Code:      "AGGREGATION_INVARIANT",
		Message:   message,
		Retryable: false,
	}
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrCancelled creates a cancellation outcome.
func ErrCancelled(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatCancelled,
		Code:      "CANCELLED",
		Message:   message,
		Retryable: false,
	}
}

// ErrState creates a persistence error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// IsCancelled reports whether an error represents run cancellation.
func IsCancelled(err error) bool {
	return IsCategory(err, ErrCatCancelled)
}

// Predefined error codes
const (
	CodePRNotFound     = "PR_NOT_FOUND"
	CodeAccessDenied   = "ACCESS_DENIED"
	CodeNetworkFailure = "NETWORK_FAILURE"
	CodeRunNotFound    = "RUN_NOT_FOUND"
	CodeParseFailed    = "PARSE_FAILED"
	CodeEmptyResponse  = "EMPTY_RESPONSE"
	CodeInvalidConfig  = "INVALID_CONFIG"
	CodeInvalidPRRef   = "INVALID_PR_REF"
)
