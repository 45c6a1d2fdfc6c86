// Package errors provides standardized error handling for the assistant.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Caller-facing codes. These are the only codes that ever cross the API
// boundary; everything else is absorbed into a safe default or mapped to
// ErrCodeInternalError with a generic message.
const (
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeRateLimited  ErrorCode = "RATE_LIMITED"
	ErrCodeInvalidQuery ErrorCode = "INVALID_QUERY"
	ErrCodeNoData       ErrorCode = "NO_DATA"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// Internal codes. Classification and generation failures degrade to safe
// defaults instead of surfacing; these codes exist for logs and metrics.
const (
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeClassificationFailed ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeLLMTimeout           ErrorCode = "LLM_TIMEOUT"
	ErrCodeGenerationFailed     ErrorCode = "GENERATION_FAILED"
	ErrCodeStoreQueryFailed     ErrorCode = "STORE_QUERY_FAILED"
	ErrCodeStoreInsertFailed    ErrorCode = "STORE_INSERT_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus maps a caller-facing code to its response status. NO_DATA is a
// valid empty-result state, not a failure, so it rides on 200.
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeInvalidQuery:
		return http.StatusBadRequest
	case ErrCodeNoData:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// NewUnauthorizedError creates a non-retryable identity/ownership error.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Missing caller identity or ownership mismatch",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitedError creates a rate-limit error carrying remaining/reset
// metadata for the caller.
func NewRateLimitedError(remaining int, resetAt time.Time) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   "Too many requests, please retry later",
		Retryable: true,
		Metadata: map[string]interface{}{
			"remaining": remaining,
			"resetAt":   resetAt.UTC().Format(time.RFC3339),
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidQueryError creates a non-retryable request-shape error with a
// field-level message.
func NewInvalidQueryError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQuery,
		Message:   fmt.Sprintf("Invalid request: %s", field),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError creates a catch-all error. The wrapped cause goes to
// Details for logging; callers only ever see the generic message.
func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "An internal error occurred",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable guard rejection. Absorbed
// upstream into the safe default classification, never caller-visible.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Input rejected by guard",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassificationFailedError creates a retryable classification error.
func NewClassificationFailedError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassificationFailed,
		Message:   "Intent classification failed",
		Details:   fmt.Sprintf("stage: %s, error: %v", stage, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable timeout error for the LLM collaborator.
func NewLLMTimeoutError(stage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM request timed out",
		Details:   fmt.Sprintf("stage: %s", stage),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationFailedError creates a retryable response generation error.
func NewGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Response generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreQueryFailedError creates a retryable ledger/conversation read error.
func NewStoreQueryFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreQueryFailed,
		Message:   "Store query failed",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreInsertFailedError creates a retryable ledger/conversation write error.
func NewStoreInsertFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreInsertFailed,
		Message:   "Store insert failed",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// AsStandard returns err as a *StandardError, wrapping unknown errors as
// internal so no raw detail leaks to callers.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*StandardError); ok {
		return se
	}
	return NewInternalError(err)
}
