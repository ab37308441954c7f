package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/config"
	"github.com/salmonumbrella/openai-cli/internal/resolve"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantContains []string
	}{
		{
			name:         "nil error",
			err:          nil,
			wantContains: []string{},
		},
		{
			name: "config error",
			err:  &api.ConfigError{Field: "access_token", Reason: "is required"},
			wantContains: []string{
				"Configuration error: access_token is required",
				"oai auth login",
			},
		},
		{
			name: "not configured",
			err:  fmt.Errorf("profile: %w", config.ErrNotConfigured),
			wantContains: []string{
				"No credentials configured",
				"OAI_ACCESS_TOKEN",
			},
		},
		{
			name: "timeout",
			err:  &api.TimeoutError{Method: "POST", URL: "https://api.openai.com/v1/chat/completions", Timeout: 2 * time.Second},
			wantContains: []string{
				"timed out after 2s",
				"--timeout",
			},
		},
		{
			name: "stream",
			err:  &api.StreamError{Chunks: 3, Err: errors.New("unexpected EOF")},
			wantContains: []string{
				"Stream interrupted after 3 chunks",
				"partial",
			},
		},
		{
			name: "openai error body",
			err:  &api.APIError{StatusCode: 401, Body: `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`},
			wantContains: []string{
				"API error (HTTP 401): Incorrect API key provided",
				"oai auth login",
			},
		},
		{
			name: "404 with request id",
			err:  &api.APIError{StatusCode: 404, Body: "not found", RequestID: "req_7"},
			wantContains: []string{
				"doesn't exist",
				"Request ID: req_7",
			},
		},
		{
			name: "azure missing api-version",
			err:  &api.APIError{StatusCode: 400, Body: "api-version query parameter is required"},
			wantContains: []string{
				"--api-version",
			},
		},
		{
			name: "connection refused",
			err:  errors.New("dial tcp 127.0.0.1:1: connect: connection refused"),
			wantContains: []string{
				"Connection refused",
				"oai auth status",
			},
		},
		{
			name: "generic",
			err:  errors.New("something odd"),
			wantContains: []string{
				"Error: something odd",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HandleError(tt.err)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("HandleError() = %q, want it to contain %q", got, want)
				}
			}
		})
	}
}

func TestHandleError_ModelSuggestions(t *testing.T) {
	apiErr := &api.APIError{StatusCode: 404, Body: "model not found"}
	nf := &resolve.NotFoundError{Query: "gpt4", Suggestions: []string{"gpt-4", "gpt-4o"}}
	got := HandleError(fmt.Errorf("%w: %w", apiErr, nf))
	if !strings.Contains(got, "Did you mean: gpt-4, gpt-4o?") {
		t.Fatalf("expected suggestions, got %q", got)
	}
}

func TestSuggestionsForStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{403, "--organization"},
		{429, "Rate limit"},
		{503, "not your fault"},
		{418, "--debug"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			if got := suggestionsForStatusCode(tt.code, ""); !strings.Contains(got, tt.want) {
				t.Errorf("suggestionsForStatusCode(%d) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}
