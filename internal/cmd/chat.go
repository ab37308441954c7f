package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/iocontext"
	"github.com/salmonumbrella/openai-cli/internal/outfmt"
)

const defaultChatModel = openai.GPT3Dot5Turbo

func newChatCmd() *cobra.Command {
	var (
		model       string
		system      string
		messages    []string
		stream      bool
		temperature float64
		maxTokens   int
		params      paramFlags
	)

	cmd := &cobra.Command{
		Use:     "chat [prompt]",
		Aliases: []string{"c"},
		Short:   "Send a chat completion request",
		Long: strings.TrimSpace(`
Send a chat completion request.

The prompt becomes the last user message. Use "-" to read it from stdin.
--message adds earlier turns as role=content and may be repeated.
With --stream, text is printed as it arrives; in JSON mode every chunk is
written as one compact line.
`),
		Example: strings.TrimSpace(`
  oai chat "Say hello"
  oai chat --model gpt-4 --system "Answer tersely" "What is Go?"
  git diff | oai chat --system "Review this diff" -
  oai chat --stream "Tell me a story"
  oai chat --message user=Hi --message assistant=Hello! "How are you?"
`),
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			var prompt string
			if len(args) == 1 {
				p, err := readInput(cmd, args[0])
				if err != nil {
					return err
				}
				prompt = p
			}
			msgs, err := chatMessages(system, messages, prompt)
			if err != nil {
				return err
			}

			body, err := params.build(func(p api.Params) {
				if len(msgs) > 0 {
					p["messages"] = msgs
				}
				if cmd.Flags().Changed("model") || p["model"] == nil {
					p["model"] = model
				}
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
			if _, ok := body["messages"]; !ok {
				return fmt.Errorf("a prompt or --message is required")
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			if body.Streaming() {
				sp := newStreamPrinter(cmd, chatDelta)
				if _, err := client.Chat(cmdContext(cmd), body, sp.onData); err != nil {
					_ = sp.finish()
					return err
				}
				return sp.finish()
			}

			resp, err := client.Chat(cmdContext(cmd), body, nil)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printRawBody(cmd, resp.Body)
			}
			var completion openai.ChatCompletionResponse
			if err := resp.Decode(&completion); err != nil {
				return err
			}
			texts := make([]string, 0, len(completion.Choices))
			for _, choice := range completion.Choices {
				texts = append(texts, choice.Message.Content)
			}
			return printChoices(cmd, texts)
		}),
	}

	cmd.Flags().StringVarP(&model, "model", "m", defaultChatModel, "Model to use")
	cmd.Flags().StringVarP(&system, "system", "s", "", "System message")
	cmd.Flags().StringArrayVar(&messages, "message", nil, "Prior message as role=content (repeatable)")
	cmd.Flags().BoolVar(&stream, "stream", false, "Print tokens as they arrive")
	cmd.Flags().Float64Var(&temperature, "temperature", 1, "Sampling temperature")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum tokens to generate")
	params.register(cmd)
	flagAlias(cmd.Flags(), "message", "msg")
	flagAlias(cmd.Flags(), "stream", "st")
	flagAlias(cmd.Flags(), "max-tokens", "mt")
	flagAlias(cmd.Flags(), "temperature", "temp")

	return cmd
}

// chatMessages assembles system, prior turns and the prompt in that order.
func chatMessages(system string, prior []string, prompt string) ([]openai.ChatCompletionMessage, error) {
	var msgs []openai.ChatCompletionMessage
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range prior {
		role, content, ok := strings.Cut(m, "=")
		role = strings.ToLower(strings.TrimSpace(role))
		if !ok || role == "" {
			return nil, fmt.Errorf("invalid --message %q (expected role=content)", m)
		}
		switch role {
		case openai.ChatMessageRoleSystem, openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant:
		default:
			return nil, fmt.Errorf("invalid --message role %q (expected system, user or assistant)", role)
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: content})
	}
	if prompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
	}
	return msgs, nil
}

func chatDelta(chunk []byte) (string, error) {
	var resp openai.ChatCompletionStreamResponse
	if err := json.Unmarshal(chunk, &resp); err != nil {
		return "", fmt.Errorf("invalid stream chunk: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

// streamPrinter writes streamed chunks as they arrive: the text delta in
// text mode, one compact (optionally filtered) document per chunk in JSON
// mode.
type streamPrinter struct {
	ctx      context.Context
	out      io.Writer
	jsonMode bool
	query    string
	delta    func([]byte) (string, error)
	wrote    bool
	lastNL   bool
}

func newStreamPrinter(cmd *cobra.Command, delta func([]byte) (string, error)) *streamPrinter {
	return &streamPrinter{
		ctx:      cmd.Context(),
		out:      iocontext.GetIO(cmd.Context()).Out,
		jsonMode: isJSON(cmd),
		query:    getJQQuery(),
		delta:    delta,
	}
}

func (p *streamPrinter) onData(chunk []byte) error {
	if p.jsonMode {
		var v any
		if err := json.Unmarshal(chunk, &v); err != nil {
			return fmt.Errorf("invalid stream chunk: %w", err)
		}
		return outfmt.WriteFiltered(p.ctx, p.out, v, p.query, true)
	}
	text, err := p.delta(chunk)
	if err != nil || text == "" {
		return err
	}
	if _, err := io.WriteString(p.out, text); err != nil {
		return err
	}
	p.wrote = true
	p.lastNL = strings.HasSuffix(text, "\n")
	return nil
}

// finish terminates text output with a newline.
func (p *streamPrinter) finish() error {
	if p.jsonMode || !p.wrote || p.lastNL {
		return nil
	}
	_, err := fmt.Fprintln(p.out)
	return err
}

// printChoices prints generated texts, separating several with a rule.
func printChoices(cmd *cobra.Command, texts []string) error {
	out := iocontext.GetIO(cmd.Context()).Out
	for i, text := range texts {
		if i > 0 {
			_, _ = fmt.Fprintln(out, "---")
		}
		if _, err := fmt.Fprintln(out, strings.TrimRight(text, "\n")); err != nil {
			return err
		}
	}
	return nil
}
