package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/api"
)

const (
	defaultCompletionModel = "text-davinci-003"
	defaultEditModel       = "text-davinci-edit-001"
)

func newCompleteCmd() *cobra.Command {
	var (
		model       string
		suffix      string
		stream      bool
		temperature float64
		maxTokens   int
		params      paramFlags
	)

	cmd := &cobra.Command{
		Use:     "complete <prompt>",
		Aliases: []string{"completion", "cmp"},
		Short:   "Send a text completion request",
		Example: strings.TrimSpace(`
  oai complete "Once upon a time"
  oai complete --stream --max-tokens 64 "Write a haiku about Go"
  cat prompt.txt | oai complete -
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			prompt, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			body, err := params.build(func(p api.Params) {
				p["prompt"] = prompt
				if cmd.Flags().Changed("model") || p["model"] == nil {
					p["model"] = model
				}
				setString(p, "suffix", suffix)
				if cmd.Flags().Changed("temperature") {
					p["temperature"] = temperature
				}
				if maxTokens > 0 {
					p["max_tokens"] = maxTokens
				}
				if stream {
					p["stream"] = true
				}
			})
			if err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			if body.Streaming() {
				sp := newStreamPrinter(cmd, completionDelta)
				if _, err := client.Completions(cmdContext(cmd), body, sp.onData); err != nil {
					_ = sp.finish()
					return err
				}
				return sp.finish()
			}

			resp, err := client.Completions(cmdContext(cmd), body, nil)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printRawBody(cmd, resp.Body)
			}
			var completion openai.CompletionResponse
			if err := resp.Decode(&completion); err != nil {
				return err
			}
			texts := make([]string, 0, len(completion.Choices))
			for _, choice := range completion.Choices {
				texts = append(texts, choice.Text)
			}
			return printChoices(cmd, texts)
		}),
	}

	cmd.Flags().StringVarP(&model, "model", "m", defaultCompletionModel, "Model to use")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Text that comes after the completion")
	cmd.Flags().BoolVar(&stream, "stream", false, "Print tokens as they arrive")
	cmd.Flags().Float64Var(&temperature, "temperature", 1, "Sampling temperature")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum tokens to generate")
	params.register(cmd)
	flagAlias(cmd.Flags(), "stream", "st")
	flagAlias(cmd.Flags(), "max-tokens", "mt")
	flagAlias(cmd.Flags(), "temperature", "temp")

	return cmd
}

func completionDelta(chunk []byte) (string, error) {
	var resp openai.CompletionResponse
	if err := json.Unmarshal(chunk, &resp); err != nil {
		return "", fmt.Errorf("invalid stream chunk: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Text, nil
}

func newEditCmd() *cobra.Command {
	var (
		model       string
		instruction string
		n           int
		params      paramFlags
	)

	cmd := &cobra.Command{
		Use:   "edit [input]",
		Short: "Rewrite input text following an instruction",
		Example: strings.TrimSpace(`
  oai edit --instruction "Fix the spelling mistakes" "What day of the wek is it?"
  oai edit -i "Convert to British English" - < letter.txt
`),
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				v, err := readInput(cmd, args[0])
				if err != nil {
					return err
				}
				input = v
			}
			body, err := params.build(func(p api.Params) {
				if cmd.Flags().Changed("model") || p["model"] == nil {
					p["model"] = model
				}
				setString(p, "input", input)
				setString(p, "instruction", instruction)
				if n > 0 {
					p["n"] = n
				}
			})
			if err != nil {
				return err
			}
			if _, ok := body["instruction"]; !ok {
				return fmt.Errorf("--instruction is required")
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			resp, err := client.Edits(cmdContext(cmd), body)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printRawBody(cmd, resp.Body)
			}
			var edits struct {
				Choices []struct {
					Text string `json:"text"`
				} `json:"choices"`
			}
			if err := resp.Decode(&edits); err != nil {
				return err
			}
			texts := make([]string, 0, len(edits.Choices))
			for _, choice := range edits.Choices {
				texts = append(texts, choice.Text)
			}
			return printChoices(cmd, texts)
		}),
	}

	cmd.Flags().StringVarP(&model, "model", "m", defaultEditModel, "Model to use")
	cmd.Flags().StringVarP(&instruction, "instruction", "i", "", "How to edit the input")
	cmd.Flags().IntVarP(&n, "n", "n", 0, "Number of edits to generate")
	params.register(cmd)

	return cmd
}
