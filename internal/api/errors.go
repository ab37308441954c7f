package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ConfigError reports a required setting missing at construction.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// APIError represents a non-success HTTP status returned by the server.
type APIError struct {
	StatusCode int
	Body       string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// TimeoutError reports that the configured request timeout elapsed.
type TimeoutError struct {
	Method  string
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s timed out after %s", e.Method, e.URL, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// StreamError reports a failure while a streamed response was being
// delivered. Chunks frames had already reached the callback.
type StreamError struct {
	Chunks int
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream failed after %d chunks: %v", e.Chunks, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// IsConfigError checks if the error is a configuration error.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsTimeoutError checks if the error is a request timeout.
func IsTimeoutError(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}

// IsStreamError checks if the error happened mid-stream.
func IsStreamError(err error) bool {
	var e *StreamError
	return errors.As(err, &e)
}

// IsNotFoundError checks if the error indicates a resource was not found.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
