package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/99designs/keyring"
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/config"
	"github.com/salmonumbrella/openai-cli/internal/iocontext"
	"github.com/salmonumbrella/openai-cli/internal/validation"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage authentication credentials",
		Long:    "Configure and manage API credentials stored securely in your OS keychain.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

type loginResult struct {
	Profile  string `json:"profile"`
	URIBase  string `json:"uri_base"`
	APIType  string `json:"api_type"`
	Verified bool   `json:"verified"`
}

// newAuthLoginCmd creates the auth login command
func newAuthLoginCmd() *cobra.Command {
	var (
		envFile    string
		tokenStdin bool
		verify     bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save credentials to a profile",
		Long: strings.TrimSpace(`
Save API credentials securely to your OS keychain.

Connection settings come from the global flags (--access-token,
--organization, --uri-base, --api-type, --api-version) and are stored under
--profile (default: "default"). The saved profile becomes the current one.

When no key is given and stdin is a terminal, you are prompted for it.
`),
		Example: strings.TrimSpace(`
  # Prompt for the key
  oai auth login

  # Non-interactive
  echo "$KEY" | oai auth login --token-stdin

  # Azure OpenAI deployment under its own profile
  oai auth login --profile azure --api-type azure --api-version 2023-05-15 \
    --uri-base https://res.openai.azure.com/openai/deployments/gpt35 --access-token KEY

  # Load OAI_* values from a .env file and check them against the API
  oai auth login --env-file .env --verify
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var profile config.Profile
			if envFile != "" {
				p, err := config.ProfileFromEnvFile(envFile)
				if err != nil {
					return err
				}
				profile = p
			}
			overlayProfileFlags(&profile)

			if tokenStdin {
				data, err := io.ReadAll(iocontext.GetIO(cmd.Context()).In)
				if err != nil {
					return fmt.Errorf("failed to read token from stdin: %w", err)
				}
				profile.AccessToken = strings.TrimSpace(string(data))
			}
			if profile.AccessToken == "" {
				if !isInteractive() {
					return fmt.Errorf("--access-token, --token-stdin or --env-file is required when stdin is not a terminal")
				}
				token, err := keyring.TerminalPrompt("API key: ")
				if err != nil {
					return fmt.Errorf("failed to read API key: %w", err)
				}
				profile.AccessToken = strings.TrimSpace(token)
			}

			client, err := clientForProfile(profile)
			if err != nil {
				return err
			}
			if verify {
				if _, err := client.Models().List(cmdContext(cmd)); err != nil {
					return fmt.Errorf("credentials rejected: %w", err)
				}
			}

			name := flags.Profile
			if name == "" {
				name = "default"
			}
			if err := config.SaveProfile(name, profile); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			cfg := client.Config()
			result := loginResult{Profile: name, URIBase: cfg.URIBase, APIType: cfg.APIType.String(), Verified: verify}
			if isJSON(cmd) {
				return printJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Authentication credentials saved successfully!")
			_, _ = fmt.Fprintf(out, "  Profile: %s\n", result.Profile)
			_, _ = fmt.Fprintf(out, "  Base URL: %s\n", result.URIBase)
			_, _ = fmt.Fprintf(out, "  API Type: %s\n", result.APIType)
			if verify {
				_, _ = fmt.Fprintln(out, "  Verified: yes")
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Load OAI_* (and optional OAI_KEYRING_*) values from a .env file")
	cmd.Flags().BoolVar(&tokenStdin, "token-stdin", false, "Read the API key from stdin")
	cmd.Flags().BoolVar(&verify, "verify", false, "List models with the new credentials before saving")
	flagAlias(cmd.Flags(), "env-file", "env")
	flagAlias(cmd.Flags(), "token-stdin", "tsi")

	return cmd
}

// overlayProfileFlags copies the connection flags that were set onto p.
func overlayProfileFlags(p *config.Profile) {
	setIfNotEmpty(&p.AccessToken, flags.AccessToken)
	setIfNotEmpty(&p.OrganizationID, flags.Organization)
	setIfNotEmpty(&p.URIBase, flags.URIBase)
	setIfNotEmpty(&p.APIType, flags.APIType)
	setIfNotEmpty(&p.APIVersion, flags.APIVersion)
}

func setIfNotEmpty(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// clientForProfile builds a client from p alone, ignoring the environment
// and any stored profile, so login validates exactly what gets saved.
func clientForProfile(p config.Profile) (*api.Client, error) {
	if p.URIBase != "" {
		if err := validation.BaseURL(p.URIBase); err != nil {
			return nil, &api.ConfigError{Field: "uri_base", Reason: err.Error()}
		}
	}
	opts := []api.Option{
		api.WithAccessToken(p.AccessToken),
		api.WithOrganization(p.OrganizationID),
		api.WithURIBase(p.URIBase),
		api.WithAPIVersion(p.APIVersion),
	}
	f := newClientFactory()
	opts = append(opts, api.WithUserAgent(f.userAgent))
	apiType := api.Direct
	if p.APIType != "" {
		t, err := api.ParseAPIType(p.APIType)
		if err != nil {
			return nil, err
		}
		apiType = t
		opts = append(opts, api.WithAPIType(t))
	}
	extend, err := f.extension(apiType)
	if err != nil {
		return nil, err
	}
	if extend != nil {
		opts = append(opts, api.WithConnectionExtension(extend))
	}
	return api.New(api.DefaultConfig(), opts...)
}

type authStatus struct {
	Authenticated  bool   `json:"authenticated"`
	Profile        string `json:"profile,omitempty"`
	Source         string `json:"source,omitempty"`
	URIBase        string `json:"uri_base,omitempty"`
	APIType        string `json:"api_type,omitempty"`
	APIVersion     string `json:"api_version,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	AccessToken    string `json:"access_token,omitempty"`
	Message        string `json:"message,omitempty"`
}

// newAuthStatusCmd creates the auth status command
func newAuthStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the effective connection settings",
		Long:  "Display the settings the next command would use, after layering flags over the environment over the stored profile. The key is masked.",
		Example: strings.TrimSpace(`
  # Check authentication status
  oai auth status

  # JSON output for scripting
  oai auth status --json
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			f := newClientFactory()
			res, err := f.resolve()
			if err != nil {
				return err
			}
			client, err := f.client()
			if err != nil {
				if !api.IsConfigError(err) {
					return err
				}
				status := authStatus{
					Profile: res.Profile,
					Message: "Not authenticated. Run 'oai auth login' to configure credentials.",
				}
				if res.ProfileErr != nil && !errors.Is(res.ProfileErr, config.ErrNotConfigured) {
					status.Message = fmt.Sprintf("Profile %q unavailable: %v", res.Profile, res.ProfileErr)
				}
				if isJSON(cmd) {
					return printJSON(cmd, status)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated.")
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), status.Message)
				return nil
			}

			cfg := client.Config()
			status := authStatus{
				Authenticated:  true,
				Profile:        res.Profile,
				Source:         credentialSource(res),
				URIBase:        cfg.URIBase,
				APIType:        cfg.APIType.String(),
				APIVersion:     cfg.APIVersion,
				OrganizationID: cfg.OrganizationID,
				AccessToken:    maskToken(cfg.AccessToken),
			}
			if isJSON(cmd) {
				return printJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Authenticated")
			_, _ = fmt.Fprintf(out, "  Base URL: %s\n", status.URIBase)
			_, _ = fmt.Fprintf(out, "  API Type: %s\n", status.APIType)
			if cfg.APIType == api.Gateway {
				_, _ = fmt.Fprintf(out, "  API Version: %s\n", status.APIVersion)
			}
			if status.OrganizationID != "" {
				_, _ = fmt.Fprintf(out, "  Organization: %s\n", status.OrganizationID)
			}
			_, _ = fmt.Fprintf(out, "  Access Token: %s\n", status.AccessToken)
			_, _ = fmt.Fprintf(out, "  Profile: %s\n", status.Profile)
			_, _ = fmt.Fprintf(out, "  Source: %s\n", status.Source)
			return nil
		}),
	}

	return cmd
}

// credentialSource names where the access token came from.
func credentialSource(res config.Resolved) string {
	switch {
	case flags.AccessToken != "":
		return "flag"
	case config.HasEnvCredential():
		return "env"
	case res.ProfileErr == nil:
		return "keychain"
	default:
		return "unknown"
	}
}

// newAuthLogoutCmd creates the auth logout command
func newAuthLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove credentials from keychain",
		Long:  "Delete the stored profile named by --profile (default: the current profile) from your OS keychain.",
		Example: strings.TrimSpace(`
  # Remove the current profile
  oai auth logout

  # Remove a named profile
  oai auth logout --profile azure
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profile := flags.Profile
			if profile == "" {
				current, err := config.CurrentProfile()
				if err != nil {
					return err
				}
				profile = current
			}

			if _, err := config.LoadProfile(profile); errors.Is(err, config.ErrNotConfigured) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No credentials found.")
				return nil
			}

			if err := config.DeleteProfile(profile); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}
			printAction(cmd, "Removed", "profile", profile, "")
			return nil
		}),
	}

	return cmd
}

// maskToken masks an API token for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) < 8 {
		return strings.Repeat("*", len(token)) // Match actual length
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
