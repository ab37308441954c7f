package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorCodeFromStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       ErrorCode
	}{
		{"400 Bad Request", 400, ErrBadRequest},
		{"401 Unauthorized", 401, ErrUnauthorized},
		{"403 Forbidden", 403, ErrForbidden},
		{"404 Not Found", 404, ErrNotFound},
		{"409 Conflict", 409, ErrConflict},
		{"422 Validation", 422, ErrValidation},
		{"429 Rate Limited", 429, ErrRateLimited},
		{"500 Server Error", 500, ErrServerError},
		{"503 Service Unavailable", 503, ErrServerError},
		{"200 OK (unknown)", 200, ErrUnknown},
		{"418 Teapot (unknown)", 418, ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCodeFromStatus(tt.statusCode); got != tt.want {
				t.Errorf("ErrorCodeFromStatus(%d) = %v, want %v", tt.statusCode, got, tt.want)
			}
		})
	}
}

func TestErrorCodeIsRetryable(t *testing.T) {
	retryable := []ErrorCode{ErrRateLimited, ErrServerError, ErrTimeout, ErrStream}
	notRetryable := []ErrorCode{ErrBadRequest, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict, ErrValidation, ErrConfig, ErrUnknown}

	for _, code := range retryable {
		if !code.IsRetryable() {
			t.Errorf("%v.IsRetryable() = false, want true", code)
		}
	}
	for _, code := range notRetryable {
		if code.IsRetryable() {
			t.Errorf("%v.IsRetryable() = true, want false", code)
		}
	}
}

func TestErrorCodeSuggestion(t *testing.T) {
	for _, code := range []ErrorCode{ErrUnauthorized, ErrNotFound, ErrTimeout, ErrStream, ErrConfig} {
		if code.Suggestion() == "" {
			t.Errorf("%v.Suggestion() is empty", code)
		}
	}
	if ErrUnknown.Suggestion() != "" {
		t.Errorf("Expected no suggestion for unknown errors")
	}
}

func TestStructuredErrorFromError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantRetry bool
		ctxKey    string
	}{
		{
			name:     "api error",
			err:      &APIError{StatusCode: 404, Body: "model not found", RequestID: "req-1"},
			wantCode: ErrNotFound,
			ctxKey:   "request_id",
		},
		{
			name:      "wrapped api error",
			err:       fmt.Errorf("listing: %w", &APIError{StatusCode: 429, Body: "slow down"}),
			wantCode:  ErrRateLimited,
			wantRetry: true,
			ctxKey:    "status_code",
		},
		{
			name:      "timeout",
			err:       &TimeoutError{Method: "GET", URL: "https://api.openai.com/v1/models", Timeout: time.Second},
			wantCode:  ErrTimeout,
			wantRetry: true,
			ctxKey:    "timeout",
		},
		{
			name:      "timed out stream",
			err:       &StreamError{Chunks: 3, Err: &TimeoutError{Method: "POST", Timeout: time.Second}},
			wantCode:  ErrTimeout,
			wantRetry: true,
			ctxKey:    "timeout",
		},
		{
			name:      "broken stream",
			err:       &StreamError{Chunks: 3, Err: errors.New("unexpected EOF")},
			wantCode:  ErrStream,
			wantRetry: true,
			ctxKey:    "chunks_delivered",
		},
		{
			name:     "config",
			err:      &ConfigError{Field: "access_token", Reason: "no credential configured"},
			wantCode: ErrConfig,
			ctxKey:   "field",
		},
		{
			name:     "other",
			err:      errors.New("boom"),
			wantCode: ErrUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := StructuredErrorFromError(tt.err)
			if se.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", se.Code, tt.wantCode)
			}
			if se.Retryable != tt.wantRetry {
				t.Errorf("Retryable = %v, want %v", se.Retryable, tt.wantRetry)
			}
			if tt.ctxKey != "" {
				if _, ok := se.Context[tt.ctxKey]; !ok {
					t.Errorf("Expected context key %q, got %v", tt.ctxKey, se.Context)
				}
			}
		})
	}

	if StructuredErrorFromError(nil) != nil {
		t.Error("Expected nil for nil error")
	}

	orig := NewStructuredError(ErrConflict, "busy")
	if got := StructuredErrorFromError(fmt.Errorf("wrap: %w", orig)); got != orig {
		t.Error("Expected wrapped StructuredError to be returned as-is")
	}
}

func TestStructuredErrorJSON(t *testing.T) {
	se := StructuredErrorFromAPIError(&APIError{StatusCode: 401, Body: "bad key"})
	data, err := json.Marshal(se)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["code"] != "unauthorized" {
		t.Errorf("Expected code unauthorized, got %v", decoded["code"])
	}
	if decoded["message"] != "bad key" {
		t.Errorf("Expected message, got %v", decoded["message"])
	}
	if decoded["suggestion"] == nil {
		t.Error("Expected suggestion to be present")
	}
	if se.Error() != "[unauthorized] bad key" {
		t.Errorf("unexpected Error(): %s", se.Error())
	}
}

func TestErrorMessages(t *testing.T) {
	cfgErr := &ConfigError{Field: "uri_base", Reason: "no base address configured"}
	if cfgErr.Error() != "configuration error: uri_base: no base address configured" {
		t.Errorf("unexpected ConfigError message: %s", cfgErr.Error())
	}

	inner := errors.New("eof")
	streamErr := &StreamError{Chunks: 2, Err: inner}
	if !errors.Is(streamErr, inner) {
		t.Error("Expected StreamError to unwrap")
	}
	if streamErr.Error() != "stream failed after 2 chunks: eof" {
		t.Errorf("unexpected StreamError message: %s", streamErr.Error())
	}

	timeoutErr := &TimeoutError{Method: "GET", URL: "u", Timeout: time.Second, Err: inner}
	if !errors.Is(timeoutErr, inner) {
		t.Error("Expected TimeoutError to unwrap")
	}
	if !IsTimeoutError(fmt.Errorf("ctx: %w", timeoutErr)) {
		t.Error("Expected IsTimeoutError through wrapping")
	}
}
