// Package errors provides structured error types for the logpress system.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryEncoding   ErrorCategory = "ENCODING"
	ErrCategoryFormat     ErrorCategory = "FORMAT"
	ErrCategoryQuery      ErrorCategory = "QUERY"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeInvalidConfig = "INVALID_CONFIG"
	CodeUnknownSlot   = "UNKNOWN_SLOT"

	// Encoding codes
	CodeUnknownCodec = "UNKNOWN_CODEC"
	CodeDecodeFailed = "DECODE_FAILED"

	// Format codes. BadMagic/BadVersion correspond to the FormatError
	// failure mode; Truncated/CorruptContainer to CorruptContainerError.
	CodeBadMagic         = "BAD_MAGIC"
	CodeBadVersion       = "BAD_VERSION"
	CodeTruncated        = "TRUNCATED"
	CodeCorruptContainer = "CORRUPT_CONTAINER"
	CodeTooLarge         = "TOO_LARGE"

	// Query codes
	CodeNoContainer = "NO_CONTAINER"

	// Storage codes
	CodePutFailed      = "PUT_FAILED"
	CodeGetFailed      = "GET_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// LogpressError is the structured error type used throughout the system.
type LogpressError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *LogpressError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *LogpressError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *LogpressError) Is(target error) bool {
	var t *LogpressError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new LogpressError.
func New(category ErrorCategory, code, message string) *LogpressError {
	return &LogpressError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new LogpressError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *LogpressError {
	return &LogpressError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *LogpressError) WithDetails(details map[string]interface{}) *LogpressError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var le *LogpressError
	if errors.As(err, &le) {
		return le.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a LogpressError.
func GetCategory(err error) ErrorCategory {
	var le *LogpressError
	if errors.As(err, &le) {
		return le.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a LogpressError.
func GetCode(err error) string {
	var le *LogpressError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsFormatError reports whether err is a bad-magic or bad-version failure.
func IsFormatError(err error) bool {
	return GetCategory(err) == ErrCategoryFormat &&
		(GetCode(err) == CodeBadMagic || GetCode(err) == CodeBadVersion)
}

// IsCorruptContainer reports whether err indicates a truncated or
// otherwise corrupt container.
func IsCorruptContainer(err error) bool {
	return GetCategory(err) == ErrCategoryFormat &&
		(GetCode(err) == CodeTruncated || GetCode(err) == CodeCorruptContainer)
}

// isRetryable determines if an error code is retryable. Format, encoding
// and query failures are pure in-memory transforms, so retry is
// meaningless for them; only storage transfers can be retried.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodePutFailed:
		return true
	case category == ErrCategoryStorage && code == CodeGetFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *LogpressError {
	return New(ErrCategoryValidation, code, message)
}

func NewFormatError(code, message string, cause error) *LogpressError {
	return Wrap(ErrCategoryFormat, code, message, cause)
}

func NewEncodingError(code, message string, cause error) *LogpressError {
	return Wrap(ErrCategoryEncoding, code, message, cause)
}

func NewQueryError(code, message string) *LogpressError {
	return New(ErrCategoryQuery, code, message)
}

func NewStorageError(code, message string, cause error) *LogpressError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewInternalError(message string, cause error) *LogpressError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
