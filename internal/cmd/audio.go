package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/iocontext"
)

func newAudioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "audio",
		Aliases: []string{"speech"},
		Short:   "Transcribe and translate audio",
	}

	cmd.AddCommand(newAudioTaskCmd("transcribe", "Transcribe audio into the language it was spoken in",
		func(ctx context.Context, c *api.Client, form *api.Form) (*api.Response, error) {
			return c.Audio().Transcribe(ctx, form)
		}))
	cmd.AddCommand(newAudioTaskCmd("translate", "Translate audio into English text",
		func(ctx context.Context, c *api.Client, form *api.Form) (*api.Response, error) {
			return c.Audio().Translate(ctx, form)
		}))

	return cmd
}

type audioCall func(ctx context.Context, c *api.Client, form *api.Form) (*api.Response, error)

func newAudioTaskCmd(name, short string, call audioCall) *cobra.Command {
	var (
		model          string
		prompt         string
		language       string
		responseFormat string
		temperature    float64
	)

	cmd := &cobra.Command{
		Use:   name + " <file>",
		Short: short,
		Example: strings.TrimSpace(fmt.Sprintf(`
  oai audio %[1]s meeting.mp3
  oai audio %[1]s meeting.mp3 --response-format srt > meeting.srt
`, name)),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			form := api.NewForm().Field("model", model)
			if err := form.FileFromPath("file", args[0]); err != nil {
				return err
			}
			if prompt != "" {
				form.Field("prompt", prompt)
			}
			if language != "" && name == "transcribe" {
				form.Field("language", language)
			}
			if responseFormat != "" {
				form.Field("response_format", responseFormat)
			}
			if cmd.Flags().Changed("temperature") {
				form.Field("temperature", strconv.FormatFloat(temperature, 'f', -1, 64))
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			resp, err := call(cmdContext(cmd), client, form)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printRawBody(cmd, resp.Body)
			}

			// json/verbose_json carry the text in a field; srt, vtt and text
			// bodies are printed as they are.
			var result struct {
				Text string `json:"text"`
			}
			if resp.Decode(&result) == nil && result.Text != "" {
				_, err := fmt.Fprintln(iocontext.GetIO(cmd.Context()).Out, result.Text)
				return err
			}
			return printRawBody(cmd, resp.Body)
		}),
	}

	cmd.Flags().StringVar(&model, "model", "whisper-1", "Speech model")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Text to guide the style or continue a previous segment")
	if name == "transcribe" {
		cmd.Flags().StringVar(&language, "language", "", "Spoken language as ISO-639-1 (e.g. en)")
	}
	cmd.Flags().StringVar(&responseFormat, "response-format", "", "json, text, srt, verbose_json or vtt")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature between 0 and 1")
	return cmd
}
