package api

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of a session error.
type ErrorKind string

const (
	// Surfaced to the caller as user-visible failures.
	ErrorKindRateLimited      ErrorKind = "rate_limited"
	ErrorKindQuotaExceeded    ErrorKind = "quota_exceeded"
	ErrorKindTransportFailure ErrorKind = "transport_failure"

	// Protocol noise. Logged and counted, never surfaced.
	ErrorKindDecodeGarbage    ErrorKind = "decode_garbage"
	ErrorKindMalformedPayload ErrorKind = "malformed_payload"

	// Misuse of the transcript (e.g. a second turn while one is open).
	ErrorKindInvalidState ErrorKind = "invalid_state"
)

// APIError represents a structured error with kind, optional HTTP status, and message.
type APIError struct {
	Kind    ErrorKind `json:"kind"`
	Status  int       `json:"status,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Surfaced reports whether errors of this kind are reported to the caller.
func (k ErrorKind) Surfaced() bool {
	switch k {
	case ErrorKindRateLimited, ErrorKindQuotaExceeded, ErrorKindTransportFailure, ErrorKindInvalidState:
		return true
	default:
		return false
	}
}

// NewRateLimitedError creates an APIError for a rate-limited backend response.
func NewRateLimitedError(status int, message string) *APIError {
	return &APIError{
		Kind:    ErrorKindRateLimited,
		Status:  status,
		Message: message,
	}
}

// NewQuotaExceededError creates an APIError for an exhausted payment/quota.
func NewQuotaExceededError(status int, message string) *APIError {
	return &APIError{
		Kind:    ErrorKindQuotaExceeded,
		Status:  status,
		Message: message,
	}
}

// NewTransportError creates an APIError for network or status-level failures.
// status is 0 when no HTTP status is involved (e.g. a dropped connection).
func NewTransportError(status int, message string) *APIError {
	return &APIError{
		Kind:    ErrorKindTransportFailure,
		Status:  status,
		Message: message,
	}
}

// NewMalformedPayloadError creates an APIError for a payload that never parsed.
func NewMalformedPayloadError(message string) *APIError {
	return &APIError{
		Kind:    ErrorKindMalformedPayload,
		Message: message,
	}
}

// NewDecodeGarbageError creates an APIError for an unrecognized line shape.
func NewDecodeGarbageError(message string) *APIError {
	return &APIError{
		Kind:    ErrorKindDecodeGarbage,
		Message: message,
	}
}

// NewInvalidStateError creates an APIError for an operation that is not
// allowed in the current transcript state.
func NewInvalidStateError(message string) *APIError {
	return &APIError{
		Kind:    ErrorKindInvalidState,
		Message: message,
	}
}

// IsKind reports whether err (or any error it wraps) is an APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
