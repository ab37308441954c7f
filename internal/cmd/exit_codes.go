package cmd

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/pflag"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/config"
)

// Exit codes are part of the CLI contract; scripts branch on them.
const (
	exitOK          = 0
	exitGeneric     = 1
	exitUsage       = 2
	exitAuth        = 3
	exitNotFound    = 4
	exitForbidden   = 5
	exitRateLimited = 6
	exitServer      = 7
	exitNetwork     = 8
	exitConfig      = 9
	exitInterrupted = 130
)

var exitCodesByErrorCode = map[api.ErrorCode]int{
	api.ErrUnauthorized: exitAuth,
	api.ErrForbidden:    exitForbidden,
	api.ErrNotFound:     exitNotFound,
	api.ErrRateLimited:  exitRateLimited,
	api.ErrServerError:  exitServer,
	api.ErrTimeout:      exitNetwork,
	api.ErrStream:       exitNetwork,
	api.ErrConfig:       exitConfig,
	api.ErrBadRequest:   exitUsage,
	api.ErrValidation:   exitUsage,
	api.ErrConflict:     exitUsage,
}

// usageIndicators are fragments of cobra/pflag and local argument errors.
var usageIndicators = []string{
	"unknown command",
	"unknown flag",
	"unknown shorthand flag",
	"flag needs an argument",
	"flag provided but not defined",
	"required flag",
	"requires at least",
	"requires exactly",
	"accepts ",
	"invalid argument",
	"invalid value",
	"invalid param",
	"invalid --",
	"invalid jq expression",
	"invalid output format",
	"must be",
	"is required",
	"missing",
}

var networkIndicators = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"tls",
	"certificate",
	"i/o timeout",
	"timeout",
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var handled *handledError
	if errors.As(err, &handled) {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	switch {
	case errors.Is(err, config.ErrNotConfigured):
		return exitConfig
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	}
	if structured := api.StructuredErrorFromError(err); structured != nil {
		if code, ok := exitCodesByErrorCode[structured.Code]; ok {
			return code
		}
	}
	if containsAny(err.Error(), usageIndicators) {
		return exitUsage
	}
	if isNetworkError(err) {
		return exitNetwork
	}
	return exitGeneric
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return true
	}
	return containsAny(err.Error(), networkIndicators)
}

func containsAny(msg string, fragments []string) bool {
	msg = strings.ToLower(msg)
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}
