package cmd

import (
	"sort"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/iocontext"
	"github.com/salmonumbrella/openai-cli/internal/outfmt"
)

const (
	defaultEmbeddingModel  = "text-embedding-ada-002"
	defaultModerationModel = "text-moderation-latest"
)

// readInputs resolves each argument with readInput.
func readInputs(cmd *cobra.Command, args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		v, err := readInput(cmd, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// inputParam sends a single input as a string and several as an array.
func inputParam(inputs []string) any {
	if len(inputs) == 1 {
		return inputs[0]
	}
	return inputs
}

func newEmbedCmd() *cobra.Command {
	var (
		model  string
		params paramFlags
	)

	cmd := &cobra.Command{
		Use:     "embed <text>...",
		Aliases: []string{"embeddings", "emb"},
		Short:   "Create embedding vectors",
		Example: strings.TrimSpace(`
  oai embed "The food was delicious"
  oai embed "first" "second" --json --jq '.data[].embedding | length'
  oai embed @document.txt
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			inputs, err := readInputs(cmd, args)
			if err != nil {
				return err
			}
			body, err := params.build(func(p api.Params) {
				p["input"] = inputParam(inputs)
				if cmd.Flags().Changed("model") || p["model"] == nil {
					p["model"] = model
				}
			})
			if err != nil {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			resp, err := client.Embeddings(cmdContext(cmd), body)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printRawBody(cmd, resp.Body)
			}

			var result openai.EmbeddingResponse
			if err := resp.Decode(&result); err != nil {
				return err
			}
			ioStreams := iocontext.GetIO(cmd.Context())
			f := outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
			f.StartTable([]string{"INDEX", "DIMENSIONS", "VECTOR"})
			for _, e := range result.Data {
				f.Row(strconv.Itoa(e.Index), strconv.Itoa(len(e.Embedding)), previewVector(e.Embedding, 4))
			}
			return f.EndTable()
		}),
	}

	cmd.Flags().StringVarP(&model, "model", "m", defaultEmbeddingModel, "Embedding model")
	params.register(cmd)
	return cmd
}

func previewVector(v []float32, n int) string {
	parts := make([]string, 0, n+1)
	for i, x := range v {
		if i == n {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, strconv.FormatFloat(float64(x), 'f', 4, 32))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

type moderationResult struct {
	Flagged        bool               `json:"flagged"`
	Categories     map[string]bool    `json:"categories"`
	CategoryScores map[string]float64 `json:"category_scores"`
}

func newModerateCmd() *cobra.Command {
	var (
		model  string
		params paramFlags
	)

	cmd := &cobra.Command{
		Use:     "moderate <text>...",
		Aliases: []string{"moderation", "mod"},
		Short:   "Classify text against the usage policies",
		Example: strings.TrimSpace(`
  oai moderate "I want to hug everyone"
  oai moderate @comments.txt --json
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			inputs, err := readInputs(cmd, args)
			if err != nil {
				return err
			}
			body, err := params.build(func(p api.Params) {
				p["input"] = inputParam(inputs)
				if cmd.Flags().Changed("model") || p["model"] == nil {
					p["model"] = model
				}
			})
			if err != nil {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			resp, err := client.Moderations(cmdContext(cmd), body)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printRawBody(cmd, resp.Body)
			}

			var result struct {
				Results []moderationResult `json:"results"`
			}
			if err := resp.Decode(&result); err != nil {
				return err
			}
			ioStreams := iocontext.GetIO(cmd.Context())
			f := outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
			f.StartTable([]string{"INPUT", "FLAGGED", "CATEGORIES"})
			for i, r := range result.Results {
				f.Row(strconv.Itoa(i), strconv.FormatBool(r.Flagged), flaggedCategories(r))
			}
			return f.EndTable()
		}),
	}

	cmd.Flags().StringVarP(&model, "model", "m", defaultModerationModel, "Moderation model")
	params.register(cmd)
	return cmd
}

func flaggedCategories(r moderationResult) string {
	var names []string
	for name, flagged := range r.Categories {
		if flagged {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
