package cmd

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/api"
)

// CompletionItem is one value offered to shell completion.
type CompletionItem struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

func outputCompletionItems(cmd *cobra.Command, items []CompletionItem) error {
	if isJSON(cmd) {
		return printJSON(cmd, items)
	}

	w := newTabWriterFromCmd(cmd)
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", item.Value, item.Label, item.Description)
	}
	return w.Flush()
}

func newCompletionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completions",
		Short: "Print values for shell completion",
		Long:  "Print the values commands accept as arguments (models, files, chat roles, API types). Listings are cached; --no-cache refetches.",
	}

	cmd.AddCommand(newCompletionsResourceCmd("models", "List model IDs", modelCompletionItems))
	cmd.AddCommand(newCompletionsResourceCmd("files", "List uploaded file IDs", fileCompletionItems))
	cmd.AddCommand(newCompletionsStaticCmd("roles", "List chat message roles", []CompletionItem{
		{Value: openai.ChatMessageRoleSystem, Label: "system", Description: "Instructions for the assistant"},
		{Value: openai.ChatMessageRoleUser, Label: "user", Description: "Messages from the user"},
		{Value: openai.ChatMessageRoleAssistant, Label: "assistant", Description: "Earlier assistant replies"},
	}))
	cmd.AddCommand(newCompletionsStaticCmd("api-types", "List API types", []CompletionItem{
		{Value: api.Direct.String(), Label: "openai", Description: "Direct: Bearer auth, version in the path"},
		{Value: api.Gateway.String(), Label: "azure", Description: "Gateway: api-key header, api-version query"},
	}))

	return cmd
}

type completionSource func(ctx context.Context, client *api.Client) ([]CompletionItem, error)

func newCompletionsResourceCmd(name, short string, source completionSource) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			items, err := source(cmdContext(cmd), client)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", name, err)
			}
			return outputCompletionItems(cmd, items)
		}),
	}
}

func newCompletionsStaticCmd(name, short string, items []CompletionItem) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			return outputCompletionItems(cmd, items)
		}),
	}
}

func modelCompletionItems(ctx context.Context, client *api.Client) ([]CompletionItem, error) {
	models, err := listModelsCached(ctx, client)
	if err != nil {
		return nil, err
	}
	items := make([]CompletionItem, len(models))
	for i, m := range models {
		items[i] = CompletionItem{Value: m.ID, Label: m.ID, Description: m.OwnedBy}
	}
	return items, nil
}

func fileCompletionItems(ctx context.Context, client *api.Client) ([]CompletionItem, error) {
	files, err := cachedList(ctx, client, "files", func() ([]api.File, error) {
		list, err := client.Files().List(ctx)
		if err != nil {
			return nil, err
		}
		return list.Data, nil
	})
	if err != nil {
		return nil, err
	}
	items := make([]CompletionItem, len(files))
	for i, f := range files {
		items[i] = CompletionItem{Value: f.ID, Label: f.Filename, Description: f.Purpose}
	}
	return items, nil
}

// completeFrom adapts a completionSource to cobra's ValidArgsFunction.
// Arguments already given are not offered again.
func completeFrom(source completionSource) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		client, err := getClient()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		items, err := source(ctx, client)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		given := make(map[string]bool, len(args))
		for _, a := range args {
			given[a] = true
		}
		var out []cobra.Completion
		for _, item := range items {
			if given[item.Value] || !strings.HasPrefix(item.Value, toComplete) {
				continue
			}
			out = append(out, cobra.CompletionWithDesc(item.Value, item.Label))
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}
