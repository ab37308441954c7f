package cmd

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/config"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"nil", nil, exitOK},
		{"help", pflag.ErrHelp, exitOK},
		{"unauthorized", &api.APIError{StatusCode: 401, Body: "bad key"}, exitAuth},
		{"not found", &api.APIError{StatusCode: 404, Body: "not found"}, exitNotFound},
		{"forbidden", &api.APIError{StatusCode: 403, Body: "forbidden"}, exitForbidden},
		{"rate limited", &api.APIError{StatusCode: 429, Body: "slow down"}, exitRateLimited},
		{"server", &api.APIError{StatusCode: 500, Body: "oops"}, exitServer},
		{"bad request", &api.APIError{StatusCode: 400, Body: "bad"}, exitUsage},
		{"timeout", &api.TimeoutError{Method: "GET", URL: "u", Timeout: time.Second}, exitNetwork},
		{"stream", &api.StreamError{Chunks: 2, Err: errors.New("eof")}, exitNetwork},
		{"config", &api.ConfigError{Field: "access_token", Reason: "required"}, exitConfig},
		{"not configured", fmt.Errorf("load: %w", config.ErrNotConfigured), exitConfig},
		{"usage", errors.New("unknown command \"nope\""), exitUsage},
		{"usage shorthand", errors.New("unknown shorthand flag: 'a' in -a"), exitUsage},
		{"network", errors.New("dial tcp: connection refused"), exitNetwork},
		{"deadline", fmt.Errorf("request: %w", context.DeadlineExceeded), exitNetwork},
		{"interrupted", fmt.Errorf("request: %w", context.Canceled), exitInterrupted},
		{"required flag", errors.New(`required flag(s) "image" not set`), exitUsage},
		{"generic", errors.New("boom"), exitGeneric},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExitCode(tc.err); got != tc.code {
				t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.code)
			}
		})
	}
}

func TestExitCode_WrappedHandledError(t *testing.T) {
	inner := &handledError{err: &api.APIError{StatusCode: 429, Body: "slow"}, exitCode: exitRateLimited}
	if got := ExitCode(fmt.Errorf("outer: %w", inner)); got != exitRateLimited {
		t.Fatalf("ExitCode(wrapped handled) = %d, want %d", got, exitRateLimited)
	}
}

func TestExitCode_HandledErrorUsesStoredCode(t *testing.T) {
	err := &handledError{err: errors.New("wrapped"), exitCode: exitNotFound}
	if got := ExitCode(err); got != exitNotFound {
		t.Fatalf("ExitCode(handled) = %d, want %d", got, exitNotFound)
	}
}
