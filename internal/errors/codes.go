package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type for chat operations.
type ErrorCode string

const (
	// ErrCodeRateLimitExceeded indicates the send budget or the provider
	// quota has been exceeded. Surfaced distinctly so callers can show a
	// limit prompt instead of a generic failure.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeTransportFailed indicates a network or model failure during a turn.
	ErrCodeTransportFailed ErrorCode = "TRANSPORT_FAILED"
	// ErrCodePersistenceFailed indicates a store read/write failure.
	// Never propagated into the turn flow; logged and retried on the next save.
	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
	// ErrCodeValidationFailed indicates malformed session data in bulk restore.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrCodeStreamInFlight indicates a turn was submitted while a reply
	// stream is still active.
	ErrCodeStreamInFlight ErrorCode = "STREAM_IN_FLIGHT"
	// ErrCodePersonaNotFound indicates the requested persona key does not exist.
	ErrCodePersonaNotFound ErrorCode = "PERSONA_NOT_FOUND"
	// ErrCodeLLMUnavailable indicates the LLM service is not configured.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
)

// ChatError represents a structured error for chat operations.
type ChatError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ChatError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *ChatError) GetCode() ErrorCode {
	return e.Code
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// Convenience constructors for common error types.

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *ChatError {
	return &ChatError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// TransportFailed creates a transport failure error.
func TransportFailed(msg string, cause error) *ChatError {
	return &ChatError{Code: ErrCodeTransportFailed, Message: msg, Cause: cause}
}

// PersistenceFailed creates a persistence failure error.
func PersistenceFailed(msg string, cause error) *ChatError {
	return &ChatError{Code: ErrCodePersistenceFailed, Message: msg, Cause: cause}
}

// ValidationFailed creates a validation error.
func ValidationFailed(msg string) *ChatError {
	return &ChatError{Code: ErrCodeValidationFailed, Message: msg}
}

// StreamInFlight creates a stream-in-flight error.
func StreamInFlight(msg string) *ChatError {
	return &ChatError{Code: ErrCodeStreamInFlight, Message: msg}
}

// PersonaNotFound creates a persona not found error.
func PersonaNotFound(key string) *ChatError {
	return &ChatError{Code: ErrCodePersonaNotFound, Message: fmt.Sprintf("unknown persona: %s", key)}
}

// LLMUnavailable creates an LLM unavailable error.
func LLMUnavailable(msg string) *ChatError {
	return &ChatError{Code: ErrCodeLLMUnavailable, Message: msg}
}
