package cmd

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/config"
	"github.com/salmonumbrella/openai-cli/internal/debug"
	"github.com/salmonumbrella/openai-cli/internal/filter"
	"github.com/salmonumbrella/openai-cli/internal/iocontext"
	"github.com/salmonumbrella/openai-cli/internal/outfmt"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output       string
	JSON         bool
	Query        string
	JQ           string
	Template     string
	Compact      bool
	Quiet        bool
	Silent       bool
	Yes          bool
	Debug        bool
	NoCache      bool
	Timeout      time.Duration
	Profile      string
	AccessToken  string
	Organization string
	URIBase      string
	APIType      string
	APIVersion   string
	Proxy        string
	MetricsFile  string
	HelpJSON     bool
}

// flags holds the global command flags. This is package-level mutable state
// that MUST be reset at the start of every Execute() call. Tests depend on
// this reset to get clean state.
var flags = rootFlags{Output: defaultOutput()}

func defaultOutput() string {
	value := strings.TrimSpace(os.Getenv("OAI_OUTPUT"))
	if value != "" {
		return normalizeOutputFormat(value)
	}
	return "text"
}

func normalizeOutputFormat(value string) string {
	value = strings.TrimSpace(value)
	if value == "ndjson" {
		return "jsonl"
	}
	return value
}

//go:embed help.txt
var helpText string

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	// Values in the dotenv file never override exported variables, so this
	// runs before any env-driven default is read.
	if err := config.LoadEnvFile(config.DefaultEnvFile()); err != nil {
		slog.Debug("env file not loaded", "error", err)
	}

	flags = rootFlags{Output: defaultOutput()}
	runMetrics = nil

	root := &cobra.Command{
		Use:                "oai",
		Short:              "CLI for the OpenAI REST API and Azure OpenAI deployments",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			flags.Output = normalizeOutputFormat(flags.Output)
			if flags.JSON {
				if flagOrAliasChanged(cmd, "output") && flags.Output != "json" {
					return fmt.Errorf("--json conflicts with --output %s", flags.Output)
				}
				flags.Output = "json"
			}
			needsJSON := flags.Query != "" || flags.JQ != "" || flags.Template != ""
			if needsJSON && flags.Output != "json" && flags.Output != "jsonl" {
				if flagOrAliasChanged(cmd, "output") {
					return fmt.Errorf("--jq/--query/--template require --output json or jsonl (or --json)")
				}
				flags.Output = "json"
			}

			mode, err := outfmt.Parse(flags.Output)
			if err != nil {
				return err
			}
			outOpts := outfmt.Options{Mode: mode, Compact: flags.Compact}

			ioStreams := iocontext.DefaultIO().Silenced(flags.Quiet && mode == outfmt.Text, flags.Silent || flags.Quiet)
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			debug.SetupLogger(flags.Debug)
			ctx = debug.WithDebug(ctx, flags.Debug)

			if flags.Timeout < 0 {
				return fmt.Errorf("--timeout must be >= 0")
			}

			if jqQuery := getJQQuery(); jqQuery != "" {
				if _, err := filter.Compile(jqQuery); err != nil {
					return err
				}
				outOpts.Query = jqQuery
			}
			if flags.Template != "" {
				tmpl, err := loadTemplate(flags.Template)
				if err != nil {
					return err
				}
				outOpts.Template = tmpl
			}
			ctx = outfmt.WithOptions(ctx, outOpts)

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)
	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd.Name() == root.Name() && !cmd.HasParent() {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), helpText)
			return
		}
		defaultHelp(cmd, args)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl|ndjson (env OAI_OUTPUT)")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVarP(&flags.Query, "query", "q", "", "JQ expression to filter JSON output")
	pf.StringVar(&flags.JQ, "jq", "", "Alias for --query")
	pf.StringVar(&flags.Template, "template", "", "Go template string (or @path) to render JSON output")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	pf.BoolVar(&flags.Silent, "silent", false, "Suppress non-error output to stderr")
	pf.BoolVarP(&flags.Yes, "yes", "y", false, "Skip confirmation prompts")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging (requests are logged without credentials)")
	pf.BoolVar(&flags.NoCache, "no-cache", false, "Bypass cached listings")
	pf.DurationVar(&flags.Timeout, "timeout", 0, "Request timeout, e.g. 30s or 2m (default 120s)")
	pf.StringVar(&flags.Profile, "profile", "", "Stored profile to use (env OAI_PROFILE)")
	pf.StringVar(&flags.AccessToken, "access-token", "", "API key (env OAI_ACCESS_TOKEN)")
	pf.StringVar(&flags.Organization, "organization", "", "Organization ID sent with direct requests (env OAI_ORGANIZATION_ID)")
	pf.StringVar(&flags.URIBase, "uri-base", "", "API base URL (env OAI_URI_BASE)")
	pf.StringVar(&flags.APIType, "api-type", "", "API type: openai|azure (env OAI_API_TYPE)")
	pf.StringVar(&flags.APIVersion, "api-version", "", "API version, a path segment or the api-version query (env OAI_API_VERSION)")
	pf.StringVar(&flags.Proxy, "proxy", "", "HTTP(S) proxy URL for API requests")
	pf.StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus request metrics to this file on exit")
	pf.BoolVar(&flags.HelpJSON, "help-json", false, "Print command help as JSON")

	flagAlias(pf, "json", "js")
	flagAlias(pf, "output", "out")
	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "template", "tpl")
	flagAlias(pf, "timeout", "to")
	flagAlias(pf, "organization", "org")
	flagAlias(pf, "access-token", "token")
	flagAlias(pf, "debug", "dbg")
	flagAlias(pf, "help-json", "hj")
	_ = root.RegisterFlagCompletionFunc("api-type", cobra.FixedCompletions(
		[]cobra.Completion{api.Direct.String(), api.Gateway.String()}, cobra.ShellCompDirectiveNoFileComp))
	_ = root.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(
		[]cobra.Completion{"text", "json", "jsonl"}, cobra.ShellCompDirectiveNoFileComp))

	root.AddCommand(newAuthCmd())
	root.AddCommand(newProfileCmd())
	root.AddCommand(newModelsCmd())
	root.AddCommand(newFilesCmd())
	root.AddCommand(newFineTunesCmd())
	root.AddCommand(newImagesCmd())
	root.AddCommand(newAudioCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newCompleteCmd())
	root.AddCommand(newEditCmd())
	root.AddCommand(newEmbedCmd())
	root.AddCommand(newModerateCmd())
	root.AddCommand(newAPICmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newCompletionsCmd())
	root.AddCommand(newVersionCmd())

	if target, ok := findHelpJSONTarget(root, args); ok {
		return printHelpJSON(target)
	}

	targetCmd, err := root.ExecuteC()
	writeMetrics()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			enhanced := enhanceUnknownError(err, root, targetCmd)
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanced)
		}
		return err
	}
	return nil
}

// writeMetrics dumps the run's request metrics when --metrics-file is set
// and at least one client was built.
func writeMetrics() {
	if flags.MetricsFile == "" || runMetrics == nil {
		return
	}
	if err := runMetrics.WriteFile(flags.MetricsFile); err != nil {
		slog.Warn("failed to write metrics file", "path", flags.MetricsFile, "error", err)
	}
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
// targetCmd is the command Cobra resolved before the error (may be root itself).
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			parent := root
			if targetCmd != nil {
				parent = targetCmd
			}
			var names []string
			for _, c := range parent.Commands() {
				if c.IsAvailableCommand() || c.Name() == "help" {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggestCommand(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		unknown := extractFlag(msg)
		if unknown == "" {
			return msg
		}
		seen := make(map[string]bool)
		var flagNames []string
		addFlags := func(fs *pflag.FlagSet) {
			fs.VisitAll(func(f *pflag.Flag) {
				if f.Hidden {
					return
				}
				for _, name := range []string{"--" + f.Name, shorthand(f)} {
					if name != "" && !seen[name] {
						seen[name] = true
						flagNames = append(flagNames, name)
					}
				}
			})
		}
		helpCmd := "oai --help"
		if targetCmd != nil {
			addFlags(targetCmd.Flags())
			addFlags(targetCmd.InheritedFlags())
			helpCmd = targetCmd.CommandPath() + " --help"
		} else {
			addFlags(root.PersistentFlags())
		}
		if suggestion := suggestFlag(unknown, flagNames); suggestion != "" {
			return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
		}
		return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
	}

	return msg
}

func shorthand(f *pflag.Flag) string {
	if f.Shorthand == "" {
		return ""
	}
	return "-" + f.Shorthand
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name (e.g., "--foo") from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		// "unknown shorthand flag: 'a' in -a"
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		rest := strings.TrimSpace(s[idx+1:])
		if end := strings.IndexByte(rest, ' '); end >= 0 {
			rest = rest[:end]
		}
		rest = strings.TrimRight(rest, ".,;:!?\"'")
		if strings.HasPrefix(rest, "-") && len(rest) > 1 {
			return rest
		}
		return ""
	}
	rest := s[idx:]
	end := strings.IndexByte(rest, ' ')
	if end < 0 {
		end = len(rest)
	}
	return strings.TrimRight(rest[:end], ".,;:!?\"'")
}

func loadTemplate(value string) (string, error) {
	if strings.HasPrefix(value, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(value, "@"))
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return value, nil
}
