package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode is a machine-readable classification of a failed call.
type ErrorCode string

const (
	// ErrBadRequest indicates a malformed request (HTTP 400).
	ErrBadRequest ErrorCode = "bad_request"
	// ErrUnauthorized indicates a missing or rejected credential (HTTP 401).
	ErrUnauthorized ErrorCode = "unauthorized"
	// ErrForbidden indicates the credential lacks permission (HTTP 403).
	ErrForbidden ErrorCode = "forbidden"
	// ErrNotFound indicates the requested resource does not exist (HTTP 404).
	ErrNotFound ErrorCode = "not_found"
	// ErrConflict indicates a conflict with current state (HTTP 409).
	ErrConflict ErrorCode = "conflict"
	// ErrValidation indicates the server rejected the parameters (HTTP 422).
	ErrValidation ErrorCode = "validation_failed"
	// ErrRateLimited indicates too many requests (HTTP 429).
	ErrRateLimited ErrorCode = "rate_limited"
	// ErrServerError indicates an internal server error (HTTP 5xx).
	ErrServerError ErrorCode = "server_error"
	// ErrTimeout indicates the request timed out.
	ErrTimeout ErrorCode = "timeout"
	// ErrStream indicates a streamed response broke off.
	ErrStream ErrorCode = "stream_failed"
	// ErrConfig indicates the client could not be configured.
	ErrConfig ErrorCode = "not_configured"
	// ErrUnknown indicates an unknown or unclassified error.
	ErrUnknown ErrorCode = "unknown"
)

// IsRetryable reports whether a caller may reasonably retry. The client
// itself never retries.
func (c ErrorCode) IsRetryable() bool {
	switch c {
	case ErrRateLimited, ErrServerError, ErrTimeout, ErrStream:
		return true
	default:
		return false
	}
}

// Suggestion returns a human-readable suggestion for resolving this error.
func (c ErrorCode) Suggestion() string {
	switch c {
	case ErrUnauthorized:
		return "Run 'oai auth login' or check the access token"
	case ErrForbidden:
		return "Check the organization and key permissions"
	case ErrNotFound:
		return "Verify the resource ID or model name"
	case ErrRateLimited:
		return "Wait a moment and retry"
	case ErrValidation, ErrBadRequest:
		return "Check the request parameters"
	case ErrConflict:
		return "The resource state may have changed; refresh and retry"
	case ErrServerError:
		return "The server encountered an error; try again later"
	case ErrTimeout:
		return "The request timed out; raise --timeout or retry"
	case ErrStream:
		return "The stream was interrupted; retry the request"
	case ErrConfig:
		return "Run 'oai auth login' or pass --access-token"
	default:
		return ""
	}
}

// ErrorCodeFromStatus maps an HTTP status code to an ErrorCode.
func ErrorCodeFromStatus(statusCode int) ErrorCode {
	switch statusCode {
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 409:
		return ErrConflict
	case 422:
		return ErrValidation
	case 429:
		return ErrRateLimited
	default:
		if statusCode >= 500 && statusCode < 600 {
			return ErrServerError
		}
		return ErrUnknown
	}
}

// StructuredError provides machine-readable error information.
type StructuredError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	Suggestion string         `json:"suggestion,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// MarshalJSON implements custom JSON marshaling.
func (e *StructuredError) MarshalJSON() ([]byte, error) {
	type Alias StructuredError
	return json.Marshal((*Alias)(e))
}

// NewStructuredError creates a StructuredError from an ErrorCode and message.
func NewStructuredError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:       code,
		Message:    message,
		Retryable:  code.IsRetryable(),
		Suggestion: code.Suggestion(),
	}
}

// StructuredErrorFromAPIError converts an APIError to a StructuredError.
func StructuredErrorFromAPIError(apiErr *APIError) *StructuredError {
	se := NewStructuredError(ErrorCodeFromStatus(apiErr.StatusCode), apiErr.Body)
	se.Context = map[string]any{"status_code": apiErr.StatusCode}
	if apiErr.RequestID != "" {
		se.Context["request_id"] = apiErr.RequestID
	}
	return se
}

// StructuredErrorFromError converts any error to a StructuredError.
func StructuredErrorFromError(err error) *StructuredError {
	if err == nil {
		return nil
	}

	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}

	// Timeouts are checked before stream errors: a stream that timed out
	// carries both.
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		se := NewStructuredError(ErrTimeout, timeoutErr.Error())
		se.Context = map[string]any{"timeout": timeoutErr.Timeout.String()}
		return se
	}

	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		se := NewStructuredError(ErrStream, streamErr.Error())
		se.Context = map[string]any{"chunks_delivered": streamErr.Chunks}
		return se
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return StructuredErrorFromAPIError(apiErr)
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		se := NewStructuredError(ErrConfig, cfgErr.Error())
		se.Context = map[string]any{"field": cfgErr.Field}
		return se
	}

	return &StructuredError{
		Code:    ErrUnknown,
		Message: err.Error(),
	}
}
