package cmd

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/salmonumbrella/openai-cli/internal/outfmt"
)

// CommandHelp is machine-readable command documentation.
type CommandHelp struct {
	Name        string           `json:"name"`
	Path        string           `json:"path"`
	Aliases     []string         `json:"aliases,omitempty"`
	Short       string           `json:"short"`
	Long        string           `json:"long,omitempty"`
	Usage       string           `json:"usage"`
	Example     string           `json:"example,omitempty"`
	Flags       []FlagHelp       `json:"flags,omitempty"`
	Subcommands []SubcommandHelp `json:"subcommands,omitempty"`
}

// FlagHelp documents one flag. Hidden short aliases are listed on the flag
// they stand for.
type FlagHelp struct {
	Name      string   `json:"name"`
	Shorthand string   `json:"shorthand,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`
	Type      string   `json:"type"`
	Default   string   `json:"default,omitempty"`
	Usage     string   `json:"usage"`
	Inherited bool     `json:"inherited,omitempty"`
}

type SubcommandHelp struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Short   string   `json:"short"`
}

func describeCommand(cmd *cobra.Command) CommandHelp {
	help := CommandHelp{
		Name:    cmd.Name(),
		Path:    cmd.CommandPath(),
		Aliases: cmd.Aliases,
		Short:   cmd.Short,
		Long:    cmd.Long,
		Usage:   cmd.UseLine(),
		Example: cmd.Example,
	}

	aliases := map[string][]string{}
	index := map[string]int{}
	collect := func(inherited bool) func(*pflag.Flag) {
		return func(f *pflag.Flag) {
			if f.Name == "help" || f.Name == "help-json" {
				return
			}
			if target, ok := f.Annotations["alias-of"]; ok && len(target) > 0 {
				aliases[target[0]] = append(aliases[target[0]], f.Name)
				return
			}
			if _, seen := index[f.Name]; seen {
				return
			}
			index[f.Name] = len(help.Flags)
			help.Flags = append(help.Flags, FlagHelp{
				Name:      f.Name,
				Shorthand: f.Shorthand,
				Type:      f.Value.Type(),
				Default:   f.DefValue,
				Usage:     f.Usage,
				Inherited: inherited,
			})
		}
	}
	cmd.LocalFlags().VisitAll(collect(false))
	cmd.InheritedFlags().VisitAll(collect(true))
	for name, names := range aliases {
		if i, ok := index[name]; ok {
			sort.Strings(names)
			help.Flags[i].Aliases = names
		}
	}

	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
			continue
		}
		help.Subcommands = append(help.Subcommands, SubcommandHelp{
			Name:    sub.Name(),
			Aliases: sub.Aliases,
			Short:   sub.Short,
		})
	}
	return help
}

// printHelpJSON writes describeCommand(cmd) to the command's stdout.
func printHelpJSON(cmd *cobra.Command) error {
	return outfmt.WriteJSON(cmd.OutOrStdout(), describeCommand(cmd))
}

// findHelpJSONTarget reports whether args ask for --help-json and which
// command they name. Cobra validates positional args before any hook runs,
// so this is resolved ahead of Execute.
func findHelpJSONTarget(root *cobra.Command, args []string) (*cobra.Command, bool) {
	var rest []string
	want := false
	for _, a := range args {
		switch {
		case a == "--help-json" || a == "--hj":
			want = true
		case strings.HasPrefix(a, "--help-json="):
			v := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(a, "--help-json=")))
			want = v == "true" || v == "1" || v == "yes"
		default:
			rest = append(rest, a)
		}
	}
	if !want {
		return nil, false
	}
	if len(rest) == 0 {
		return root, true
	}
	cmd, _, err := root.Find(rest)
	if err != nil || cmd == nil {
		return root, true
	}
	return cmd, true
}
