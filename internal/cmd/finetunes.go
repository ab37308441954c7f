package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/iocontext"
	"github.com/salmonumbrella/openai-cli/internal/outfmt"
)

func newFineTunesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fine-tunes",
		Aliases: []string{"finetunes", "ft"},
		Short:   "Create and manage fine-tuning jobs",
	}

	cmd.AddCommand(newFineTunesListCmd())
	cmd.AddCommand(newFineTunesCreateCmd())
	cmd.AddCommand(newFineTunesGetCmd())
	cmd.AddCommand(newFineTunesCancelCmd())
	cmd.AddCommand(newFineTunesEventsCmd())
	cmd.AddCommand(newFineTunesDeleteModelCmd())

	return cmd
}

func newFineTunesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List fine-tuning jobs",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			list, err := client.FineTunes().List(cmdContext(cmd))
			if err != nil {
				return err
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			f := outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
			if isJSON(cmd) {
				return f.Output(list.Data)
			}
			if len(list.Data) == 0 {
				f.Empty("No fine-tunes found")
				return nil
			}
			f.StartTable([]string{"ID", "MODEL", "STATUS", "FINE_TUNED_MODEL", "CREATED"})
			for _, ft := range list.Data {
				f.Row(ft.ID, ft.Model, ft.Status, fineTunedModel(ft), formatUnix(ft.CreatedAt))
			}
			return f.EndTable()
		}),
	}
}

func newFineTunesCreateCmd() *cobra.Command {
	var (
		trainingFile   string
		validationFile string
		model          string
		suffix         string
		params         paramFlags
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a fine-tuning job",
		Example: strings.TrimSpace(`
  oai fine-tunes create --training-file file-abc123
  oai fine-tunes create --training-file file-abc123 --model davinci --suffix support --set n_epochs=2
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			body, err := params.build(func(p api.Params) {
				setString(p, "training_file", trainingFile)
				setString(p, "validation_file", validationFile)
				setString(p, "model", model)
				setString(p, "suffix", suffix)
			})
			if err != nil {
				return err
			}
			if _, ok := body["training_file"]; !ok {
				return fmt.Errorf("--training-file is required")
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			ft, err := client.FineTunes().Create(cmdContext(cmd), body)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, ft)
			}
			printAction(cmd, "Created", "fine-tune", ft.ID, ft.Status)
			return nil
		}),
	}

	cmd.Flags().StringVar(&trainingFile, "training-file", "", "ID of an uploaded training file")
	cmd.Flags().StringVar(&validationFile, "validation-file", "", "ID of an uploaded validation file")
	cmd.Flags().StringVar(&model, "model", "", "Base model to fine-tune")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Suffix for the fine-tuned model name")
	params.register(cmd)
	flagAlias(cmd.Flags(), "training-file", "tf")
	flagAlias(cmd.Flags(), "validation-file", "vf")
	return cmd
}

func newFineTunesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Aliases: []string{"g", "show"},
		Short:   "Show a fine-tuning job",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			ft, err := client.FineTunes().Retrieve(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, ft)
			}
			printFineTune(cmd, ft)
			return nil
		}),
	}
}

func newFineTunesCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a running fine-tuning job",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			ft, err := client.FineTunes().Cancel(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, ft)
			}
			printAction(cmd, "Cancelled", "fine-tune", ft.ID, ft.Status)
			return nil
		}),
	}
}

func newFineTunesEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events <id>",
		Short: "List the progress events of a fine-tuning job",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			events, err := client.FineTunes().Events(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			f := outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
			if isJSON(cmd) {
				return f.Output(events.Data)
			}
			if len(events.Data) == 0 {
				f.Empty("No events yet")
				return nil
			}
			f.StartTable([]string{"CREATED", "LEVEL", "MESSAGE"})
			for _, e := range events.Data {
				f.Row(formatUnixTime(e.CreatedAt), e.Level, e.Message)
			}
			return f.EndTable()
		}),
	}
}

func newFineTunesDeleteModelCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete-model <model>",
		Short: "Delete a fine-tuned model",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ok, err := confirmAction(cmd, confirmOptions{
				Prompt:        fmt.Sprintf("Delete model %q? [y/N]: ", args[0]),
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
			result, err := client.FineTunes().DeleteModel(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}
			invalidateCache(cmdContext(cmd), client, "models")
			if isJSON(cmd) {
				return printJSON(cmd, result)
			}
			printAction(cmd, "Deleted", "model", result.ID, "")
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}

func printFineTune(cmd *cobra.Command, ft *api.FineTune) {
	w := newTabWriterFromCmd(cmd)
	defer func() { _ = w.Flush() }()
	_, _ = fmt.Fprintf(w, "ID:\t%s\n", ft.ID)
	_, _ = fmt.Fprintf(w, "Model:\t%s\n", ft.Model)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", ft.Status)
	_, _ = fmt.Fprintf(w, "Fine-tuned model:\t%s\n", fineTunedModel(*ft))
	_, _ = fmt.Fprintf(w, "Created:\t%s\n", formatUnixTime(ft.CreatedAt))
	_, _ = fmt.Fprintf(w, "Updated:\t%s\n", formatUnixTime(ft.UpdatedAt))
	for _, file := range ft.TrainingFiles {
		_, _ = fmt.Fprintf(w, "Training file:\t%s (%s)\n", file.ID, file.Filename)
	}
}

func fineTunedModel(ft api.FineTune) string {
	if ft.FineTunedModel == nil || *ft.FineTunedModel == "" {
		return "-"
	}
	return *ft.FineTunedModel
}
