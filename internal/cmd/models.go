package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/cache"
	"github.com/salmonumbrella/openai-cli/internal/config"
	"github.com/salmonumbrella/openai-cli/internal/iocontext"
	"github.com/salmonumbrella/openai-cli/internal/outfmt"
	"github.com/salmonumbrella/openai-cli/internal/resolve"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"model", "m"},
		Short:   "List and inspect models",
	}

	cmd.AddCommand(newModelsListCmd())
	cmd.AddCommand(newModelsGetCmd())
	cmd.AddCommand(newModelsDeleteCmd())

	return cmd
}

func newModelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List available models",
		Long:    "List the models available to the key. Results are cached for 5 minutes; use --no-cache to refetch.",
		Example: strings.TrimSpace(`
  oai models list
  oai models list --json --jq '.data[].id'
  oai models list --no-cache
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			models, err := listModelsCached(cmdContext(cmd), client)
			if err != nil {
				return err
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			f := outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
			if isJSON(cmd) {
				return f.Output(models)
			}
			if len(models) == 0 {
				f.Empty("No models found")
				return nil
			}
			f.StartTable([]string{"ID", "OWNED_BY", "CREATED"})
			for _, m := range models {
				f.Row(m.ID, m.OwnedBy, formatUnix(m.Created))
			}
			return f.EndTable()
		}),
	}
}

func newModelsGetCmd() *cobra.Command {
	var ids string

	cmd := &cobra.Command{
		Use:     "get <id>...",
		Aliases: []string{"g", "show"},
		Short:   "Retrieve one or more models",
		Example: strings.TrimSpace(`
  oai models get gpt-4
  oai models get gpt-4 whisper-1 --json
`),
		ValidArgsFunction: completeFrom(modelCompletionItems),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			modelIDs, err := collectIDs(args, ids)
			if err != nil {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}

			ctx := cmdContext(cmd)
			if len(modelIDs) == 1 {
				model, err := retrieveModel(ctx, client, modelIDs[0])
				if err != nil {
					return err
				}
				if isJSON(cmd) {
					return printJSON(cmd, model)
				}
				printModel(cmd, model)
				return nil
			}

			results := runBulkOperation(ctx, modelIDs, DefaultConcurrency, false, nil,
				func(ctx context.Context, id string) (*api.Model, error) {
					return retrieveModel(ctx, client, id)
				})
			if err := soleFailure(results); err != nil {
				return err
			}
			if isJSON(cmd) {
				return reportBulk(cmd, "Retrieved", "model", results)
			}
			errOut := iocontext.GetIO(cmd.Context()).ErrOut
			for _, r := range results {
				if model, ok := r.Data.(*api.Model); ok {
					printModel(cmd, model)
					continue
				}
				_, _ = fmt.Fprintf(errOut, "Failed model %s: %v\n", r.ID, r.Error)
			}
			return bulkError("model", results)
		}),
	}

	cmd.Flags().StringVar(&ids, "ids", "", "Additional model IDs (comma separated, JSON array or @file)")
	return cmd
}

func newModelsDeleteCmd() *cobra.Command {
	var (
		ids   string
		force bool
	)

	cmd := &cobra.Command{
		Use:               "delete <id>...",
		Aliases:           []string{"rm"},
		Short:             "Delete fine-tuned models you own",
		Example:           "oai models delete ft:gpt-3.5-turbo:acme::abc123 --yes",
		ValidArgsFunction: completeFrom(modelCompletionItems),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			modelIDs, err := collectIDs(args, ids)
			if err != nil {
				return err
			}
			ok, err := confirmAction(cmd, confirmOptions{
				Prompt:        fmt.Sprintf("Delete %d model(s)? [y/N]: ", len(modelIDs)),
				CancelMessage: "Cancelled.",
				Force:         force,
			})
			if err != nil || !ok {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			results := runBulkOperation(cmdContext(cmd), modelIDs, DefaultConcurrency, false, nil,
				func(ctx context.Context, id string) (*api.DeleteResult, error) {
					return client.Models().Delete(ctx, id)
				})
			invalidateCache(cmdContext(cmd), client, "models")
			return reportBulk(cmd, "Deleted", "model", results)
		}),
	}

	cmd.Flags().StringVar(&ids, "ids", "", "Additional model IDs (comma separated, JSON array or @file)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}

// retrieveModel fetches one model. A 404 carries the closest known model IDs.
func retrieveModel(ctx context.Context, client *api.Client, id string) (*api.Model, error) {
	model, err := client.Models().Retrieve(ctx, id)
	if err == nil || !api.IsNotFoundError(err) {
		return model, err
	}
	models, listErr := listModelsCached(ctx, client)
	if listErr != nil {
		return nil, err
	}
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	suggestions := resolve.Suggest(id, ids, 3)
	if len(suggestions) == 0 {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", err, &resolve.NotFoundError{Query: id, Suggestions: suggestions})
}

func printModel(cmd *cobra.Command, m *api.Model) {
	w := newTabWriterFromCmd(cmd)
	defer func() { _ = w.Flush() }()
	_, _ = fmt.Fprintf(w, "ID:\t%s\n", m.ID)
	_, _ = fmt.Fprintf(w, "Owned by:\t%s\n", m.OwnedBy)
	_, _ = fmt.Fprintf(w, "Created:\t%s\n", formatUnix(m.Created))
}

// listModelsCached returns the models list, served from the cache unless
// --no-cache is set.
func listModelsCached(ctx context.Context, client *api.Client) ([]api.Model, error) {
	return cachedList(ctx, client, "models", func() ([]api.Model, error) {
		list, err := client.Models().List(ctx)
		if err != nil {
			return nil, err
		}
		return list.Data, nil
	})
}

// cachedList serves a listing from the cache entry for key, calling fetch
// and refreshing the entry on a miss. --no-cache skips the read only.
func cachedList[T any](ctx context.Context, client *api.Client, key string, fetch func() ([]T, error)) ([]T, error) {
	store := openListCache(client, key)
	if store != nil {
		defer closeListCache(store)
	}

	var items []T
	if store != nil && !flags.NoCache && store.Get(ctx, &items) {
		slog.Debug("listing served from cache", "key", key)
		return items, nil
	}
	items, err := fetch()
	if err != nil {
		return nil, err
	}
	if store != nil {
		store.Put(ctx, items)
	}
	return items, nil
}

// invalidateCache drops the cached listing for key after a mutation.
func invalidateCache(ctx context.Context, client *api.Client, key string) {
	if store := openListCache(client, key); store != nil {
		store.Clear(ctx)
		closeListCache(store)
	}
}

func openListCache(client *api.Client, key string) cache.Store {
	store, err := cache.Open(resolveCacheDir(), cacheScope(key, client), cache.DefaultTTL)
	if err != nil {
		slog.Debug("cache unavailable", "key", key, "error", err)
		return nil
	}
	return store
}

func closeListCache(store cache.Store) {
	if closer, ok := store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

// cacheScope keys cached listings by server and profile so switching either
// never serves stale data from the other.
func cacheScope(key string, client *api.Client) cache.Scope {
	return cache.Scope{
		Key:     key,
		BaseURL: client.URI("/" + key),
		Profile: activeProfile(),
	}
}

func activeProfile() string {
	if flags.Profile != "" {
		return flags.Profile
	}
	if p := os.Getenv(config.EnvProfile); p != "" {
		return p
	}
	if p, err := config.CurrentProfile(); err == nil {
		return p
	}
	return ""
}

func formatUnix(ts int64) string {
	if ts <= 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

func formatUnixTime(ts int64) string {
	if ts <= 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05")
}
