package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/cli"
	"github.com/salmonumbrella/openai-cli/internal/iocontext"
	"github.com/salmonumbrella/openai-cli/internal/outfmt"
)

func newFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"file", "f"},
		Short:   "Upload and manage files",
	}

	cmd.AddCommand(newFilesListCmd())
	cmd.AddCommand(newFilesUploadCmd())
	cmd.AddCommand(newFilesGetCmd())
	cmd.AddCommand(newFilesContentCmd())
	cmd.AddCommand(newFilesDeleteCmd())

	return cmd
}

func newFilesListCmd() *cobra.Command {
	var purpose, since string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List uploaded files",
		Example: strings.TrimSpace(`
  oai files list --json
  oai files list --purpose fine-tune --since 7d
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var cutoff time.Time
			if since != "" {
				t, err := cli.ParseSince(since, time.Now())
				if err != nil {
					return fmt.Errorf("invalid --since: %w", err)
				}
				cutoff = t
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			list, err := client.Files().List(cmdContext(cmd))
			if err != nil {
				return err
			}
			files := filterFiles(list.Data, purpose, cutoff)

			ioStreams := iocontext.GetIO(cmd.Context())
			f := outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
			if isJSON(cmd) {
				return f.Output(files)
			}
			if len(files) == 0 {
				f.Empty("No files found")
				return nil
			}
			f.StartTable([]string{"ID", "FILENAME", "PURPOSE", "BYTES", "CREATED"})
			for _, file := range files {
				f.Row(file.ID, file.Filename, file.Purpose, strconv.FormatInt(file.Bytes, 10), formatUnix(file.CreatedAt))
			}
			return f.EndTable()
		}),
	}

	cmd.Flags().StringVar(&purpose, "purpose", "", "Only files with this purpose")
	cmd.Flags().StringVar(&since, "since", "", "Only files created since, e.g. 7d, yesterday, 2023-11-14")
	return cmd
}

// filterFiles keeps files matching purpose (when set) and created at or
// after cutoff (when non-zero).
func filterFiles(files []api.File, purpose string, cutoff time.Time) []api.File {
	out := make([]api.File, 0, len(files))
	for _, f := range files {
		if purpose != "" && !strings.EqualFold(f.Purpose, purpose) {
			continue
		}
		if !cutoff.IsZero() && f.CreatedAt < cutoff.Unix() {
			continue
		}
		out = append(out, f)
	}
	return out
}

func newFilesUploadCmd() *cobra.Command {
	var purpose string

	cmd := &cobra.Command{
		Use:     "upload <path>...",
		Aliases: []string{"up"},
		Short:   "Upload one or more files",
		Example: strings.TrimSpace(`
  oai files upload train.jsonl
  oai files upload a.jsonl b.jsonl --purpose fine-tune --json
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(purpose) == "" {
				return fmt.Errorf("--purpose must not be empty")
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			results := runBulkOperation(cmdContext(cmd), args, DefaultConcurrency, len(args) > 1 && !flags.Quiet,
				iocontext.GetIO(cmd.Context()).ErrOut,
				func(ctx context.Context, path string) (*api.File, error) {
					return uploadPath(ctx, client, path, purpose)
				})
			invalidateCache(cmdContext(cmd), client, "files")
			if err := soleFailure(results); err != nil {
				return err
			}

			if isJSON(cmd) {
				if len(results) == 1 {
					return printJSON(cmd, results[0].Data)
				}
				return reportBulk(cmd, "Uploaded", "file", results)
			}
			errOut := iocontext.GetIO(cmd.Context()).ErrOut
			for _, r := range results {
				if file, ok := r.Data.(*api.File); ok {
					printAction(cmd, "Uploaded", "file", file.ID, file.Filename)
					continue
				}
				_, _ = fmt.Fprintf(errOut, "Failed file %s: %v\n", r.ID, r.Error)
			}
			return bulkError("file", results)
		}),
	}

	cmd.Flags().StringVarP(&purpose, "purpose", "p", "fine-tune", "Intended use of the file")
	flagAlias(cmd.Flags(), "purpose", "pp")
	return cmd
}

func uploadPath(ctx context.Context, client *api.Client, path, purpose string) (*api.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return client.Files().Upload(ctx, filepath.Base(path), f, purpose)
}

func newFilesGetCmd() *cobra.Command {
	var ids string

	cmd := &cobra.Command{
		Use:               "get <id>...",
		Aliases:           []string{"g", "show"},
		Short:             "Retrieve file metadata",
		Example:           "oai files get file-abc123",
		ValidArgsFunction: completeFrom(fileCompletionItems),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			fileIDs, err := collectIDs(args, ids)
			if err != nil {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			results := runBulkOperation(cmdContext(cmd), fileIDs, DefaultConcurrency, false, nil,
				func(ctx context.Context, id string) (*api.File, error) {
					return client.Files().Retrieve(ctx, id)
				})
			if err := soleFailure(results); err != nil {
				return err
			}

			if isJSON(cmd) {
				if len(results) == 1 {
					return printJSON(cmd, results[0].Data)
				}
				return reportBulk(cmd, "Retrieved", "file", results)
			}
			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintln(w, "ID\tFILENAME\tPURPOSE\tBYTES\tSTATUS")
			errOut := iocontext.GetIO(cmd.Context()).ErrOut
			for _, r := range results {
				file, ok := r.Data.(*api.File)
				if !ok {
					_, _ = fmt.Fprintf(errOut, "Failed file %s: %v\n", r.ID, r.Error)
					continue
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", file.ID, file.Filename, file.Purpose, file.Bytes, file.Status)
			}
			_ = w.Flush()
			return bulkError("file", results)
		}),
	}

	cmd.Flags().StringVar(&ids, "ids", "", "Additional file IDs (comma separated, JSON array or @file)")
	return cmd
}

func newFilesContentCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:     "content <id>",
		Aliases: []string{"download", "cat"},
		Short:   "Download the contents of a file",
		Example: strings.TrimSpace(`
  oai files content file-abc123
  oai files content file-abc123 -O results.jsonl
`),
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFrom(fileCompletionItems),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			data, err := client.Files().Content(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err := iocontext.GetIO(cmd.Context()).Out.Write(data)
				return err
			}
			if err := os.WriteFile(outputFile, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputFile, err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"id": args[0], "path": outputFile, "bytes": len(data)})
			}
			printAction(cmd, "Saved", "file", args[0], outputFile)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&outputFile, "output-file", "O", "", "Write the contents to a file instead of stdout")
	return cmd
}

func newFilesDeleteCmd() *cobra.Command {
	var (
		ids   string
		force bool
	)

	cmd := &cobra.Command{
		Use:               "delete <id>...",
		Aliases:           []string{"rm"},
		Short:             "Delete one or more files",
		Example:           "oai files delete file-abc123 file-def456 --yes",
		ValidArgsFunction: completeFrom(fileCompletionItems),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			fileIDs, err := collectIDs(args, ids)
			if err != nil {
				return err
			}
			ok, err := confirmAction(cmd, confirmOptions{
				Prompt:        fmt.Sprintf("Delete %d file(s)? [y/N]: ", len(fileIDs)),
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
			results := runBulkOperation(cmdContext(cmd), fileIDs, DefaultConcurrency, false, nil,
				func(ctx context.Context, id string) (*api.DeleteResult, error) {
					return client.Files().Delete(ctx, id)
				})
			invalidateCache(cmdContext(cmd), client, "files")
			return reportBulk(cmd, "Deleted", "file", results)
		}),
	}

	cmd.Flags().StringVar(&ids, "ids", "", "Additional file IDs (comma separated, JSON array or @file)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}
