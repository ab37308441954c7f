package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/config"
	"github.com/salmonumbrella/openai-cli/internal/resolve"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var apiErr *api.APIError
	var cfgErr *api.ConfigError
	var timeoutErr *api.TimeoutError
	var streamErr *api.StreamError

	switch {
	case errors.As(err, &cfgErr):
		fmt.Fprintf(&msg, "Configuration error: %s %s.\n\n", cfgErr.Field, cfgErr.Reason)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: oai auth login\n")
		msg.WriteString("  - Or set OAI_ACCESS_TOKEN / pass --access-token\n")
		msg.WriteString("  - Check the active profile: oai auth status\n")

	case errors.Is(err, config.ErrNotConfigured):
		msg.WriteString("No credentials configured.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: oai auth login\n")
		msg.WriteString("  - Or set OAI_ACCESS_TOKEN\n")

	case errors.As(err, &timeoutErr):
		fmt.Fprintf(&msg, "Request timed out after %s: %s %s\n\n", timeoutErr.Timeout, timeoutErr.Method, timeoutErr.URL)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Raise the limit with --timeout (e.g. --timeout 5m)\n")
		msg.WriteString("  - Use --stream for long generations\n")

	case errors.As(err, &streamErr):
		fmt.Fprintf(&msg, "Stream interrupted after %d chunks: %v\n\n", streamErr.Chunks, streamErr.Err)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Output printed so far is partial\n")
		msg.WriteString("  - Retry the request\n")

	case errors.As(err, &apiErr):
		fmt.Fprintf(&msg, "API error (HTTP %d): %s\n\n", apiErr.StatusCode, apiErrorMessage(apiErr.Body))
		msg.WriteString(suggestionsForStatusCode(apiErr.StatusCode, apiErr.Body))
		var nf *resolve.NotFoundError
		if errors.As(err, &nf) && len(nf.Suggestions) > 0 {
			fmt.Fprintf(&msg, "\nDid you mean: %s?\n", strings.Join(nf.Suggestions, ", "))
		}
		if apiErr.RequestID != "" {
			fmt.Fprintf(&msg, "\nRequest ID: %s\n", apiErr.RequestID)
		}

	case strings.Contains(err.Error(), "connection refused"):
		msg.WriteString("Connection refused.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the base URL: oai auth status\n")
		msg.WriteString("  - Check your network connection or --proxy\n")

	case strings.Contains(err.Error(), "no such host"):
		msg.WriteString("DNS resolution failed.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the --uri-base spelling\n")
		msg.WriteString("  - Verify your DNS settings\n")

	case strings.Contains(err.Error(), "certificate"):
		msg.WriteString("TLS certificate error.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the server's certificate\n")
		msg.WriteString("  - Ensure the base URL uses https:// correctly\n")

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

// apiErrorMessage pulls error.message out of an OpenAI-style error body,
// falling back to the raw body.
func apiErrorMessage(body string) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return body
}

func suggestionsForStatusCode(code int, body string) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case 400:
		suggestions.WriteString("  - Check your request parameters\n")
		suggestions.WriteString("  - Use --debug to see the request\n")
		if strings.Contains(body, "api-version") {
			suggestions.WriteString("  - Azure deployments need --api-version (e.g. 2023-05-15)\n")
		}

	case 401:
		suggestions.WriteString("  - Your API key may be invalid or revoked\n")
		suggestions.WriteString("  - Run: oai auth login\n")
		suggestions.WriteString("  - Check --api-type matches the endpoint (openai or azure)\n")

	case 403:
		suggestions.WriteString("  - The key lacks permission for this action\n")
		suggestions.WriteString("  - Check --organization\n")

	case 404:
		suggestions.WriteString("  - The resource or model doesn't exist\n")
		suggestions.WriteString("  - Check the ID, or the deployment name in --uri-base\n")

	case 429:
		suggestions.WriteString("  - Rate limit or quota reached\n")
		suggestions.WriteString("  - Wait and retry in a few seconds\n")

	case 500, 502, 503, 504:
		suggestions.WriteString("  - Server error - not your fault\n")
		suggestions.WriteString("  - Wait and retry\n")

	default:
		suggestions.WriteString("  - Use --debug for more details\n")
	}

	return suggestions.String()
}

// ExitWithError prints error with suggestions and exits
func ExitWithError(err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprint(os.Stderr, HandleError(err))
	os.Exit(ExitCode(err))
}
