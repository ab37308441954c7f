package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/dryrun"
	"github.com/salmonumbrella/openai-cli/internal/iocontext"
)

var apiMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodPatch: true, http.MethodDelete: true,
}

func newAPICmd() *cobra.Command {
	var (
		fields         []string
		rawFields      []string
		formFields     []string
		inputFile      string
		jsonBody       string
		stream         bool
		includeHeaders bool
		dryRun         bool
	)

	cmd := &cobra.Command{
		Use:     "api [METHOD] <path>",
		Aliases: []string{"ap"},
		Short:   "Make raw API requests to any endpoint",
		Long: `Make raw API requests to any endpoint.

The path is resolved like every other command: in openai mode it is joined
to the base URL after the API version ("/models" becomes
https://api.openai.com/v1/models); in azure mode it is joined to the base
URL and api-version is added to the query.

METHOD defaults to GET, or POST when a body, field or form is given.`,
		Example: `  # GET request (default)
  oai api /models

  # POST with fields
  oai api POST /embeddings -f model=text-embedding-ada-002 -f input=hello

  # JSON-typed field values
  oai api POST /chat/completions -f model=gpt-4 -F 'messages=[{"role":"user","content":"Hi"}]'

  # Body from a file or stdin
  oai api POST /chat/completions -i body.json
  echo '{"model":"gpt-4","messages":[]}' | oai api POST /chat/completions -i -

  # Multipart upload; @ reads a file
  oai api POST /files --form purpose=fine-tune --form file=@train.jsonl

  # Stream server-sent events, one data frame per line
  oai api POST /chat/completions -i body.json --stream

  # Filter with jq
  oai api /models --jq '.data[].id'

  # Show status and headers
  oai api /models --include

  # Print the resolved request without sending it
  oai api POST /embeddings -f model=text-embedding-ada-002 -f input=hi --dry-run`,
		Args: cobra.RangeArgs(1, 2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			method, endpoint := "", args[len(args)-1]
			if len(args) == 2 {
				method = strings.ToUpper(args[0])
				if !apiMethods[method] {
					return fmt.Errorf("invalid HTTP method %q: must be one of GET, POST, PUT, PATCH, DELETE", args[0])
				}
			}

			if jsonBody != "" && inputFile != "" {
				return fmt.Errorf("cannot use both --body and --input flags")
			}
			if len(formFields) > 0 && (jsonBody != "" || inputFile != "" || len(fields) > 0 || len(rawFields) > 0) {
				return fmt.Errorf("--form cannot be combined with a JSON body")
			}

			body, err := buildRequestBody(cmd, fields, rawFields, inputFile, jsonBody)
			if err != nil {
				return err
			}
			if method == "" {
				method = http.MethodGet
				if body != nil || len(formFields) > 0 {
					method = http.MethodPost
				}
			}
			if stream || len(formFields) > 0 {
				if method != http.MethodPost {
					return fmt.Errorf("--stream and --form require POST")
				}
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			if dryRun {
				if stream {
					if body == nil {
						body = api.Params{}
					}
					body["stream"] = true
				}
				return printPreview(cmd, client, method, endpoint, body, formFields)
			}
			ctx := cmdContext(cmd)

			var resp *api.Response
			switch {
			case len(formFields) > 0:
				form, err := buildForm(formFields)
				if err != nil {
					return err
				}
				resp, err = client.MultipartPost(ctx, endpoint, form)
				if err != nil {
					return err
				}
			case stream:
				if body == nil {
					body = api.Params{}
				}
				body["stream"] = true
				out := iocontext.GetIO(cmd.Context()).Out
				_, err := client.JSONPost(ctx, endpoint, body, func(chunk []byte) error {
					_, err := fmt.Fprintf(out, "%s\n", chunk)
					return err
				})
				return err
			default:
				resp, err = client.Do(ctx, method, endpoint, body)
				if err != nil {
					return err
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, apiJSONPayload(resp.Body, resp.Header, resp.StatusCode, includeHeaders))
			}

			out := iocontext.GetIO(cmd.Context()).Out
			if includeHeaders {
				_, _ = fmt.Fprintf(out, "HTTP %d\n", resp.StatusCode)
				// Sort headers for consistent output
				keys := make([]string, 0, len(resp.Header))
				for k := range resp.Header {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					for _, v := range resp.Header[k] {
						_, _ = fmt.Fprintf(out, "%s: %s\n", k, v)
					}
				}
				_, _ = fmt.Fprintln(out)
			}
			if len(resp.Body) == 0 {
				return nil
			}
			return printRawBody(cmd, resp.Body)
		}),
	}

	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Request body field as key=value (string)")
	cmd.Flags().StringArrayVarP(&rawFields, "raw-field", "F", nil, "Request body field as key=value (JSON parsed)")
	cmd.Flags().StringArrayVar(&formFields, "form", nil, "Multipart field as key=value; key=@path attaches a file")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read request body from file (use - for stdin)")
	cmd.Flags().StringVarP(&jsonBody, "body", "d", "", "Request body as inline JSON string")
	cmd.Flags().BoolVar(&stream, "stream", false, "Send stream: true and print each event data frame")
	cmd.Flags().BoolVar(&includeHeaders, "include", false, "Include response status and headers in output")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the resolved request instead of sending it")
	flagAlias(cmd.Flags(), "include", "inc")
	flagAlias(cmd.Flags(), "stream", "st")

	return cmd
}

// printPreview shows the URL and headers the client would use.
func printPreview(cmd *cobra.Command, client *api.Client, method, endpoint string, body api.Params, form []string) error {
	preview := dryrun.New(method, client.URI(endpoint), client.Headers())
	if body != nil {
		preview.Body = body
	}
	preview.Form = form
	if isJSON(cmd) {
		return printJSON(cmd, preview)
	}
	return preview.Write(iocontext.GetIO(cmd.Context()).Out)
}

func apiJSONPayload(respBody []byte, headers map[string][]string, statusCode int, includeHeaders bool) any {
	body := apiJSONBody(respBody)
	if !includeHeaders {
		return body
	}
	return map[string]any{
		"status":  statusCode,
		"headers": headers,
		"body":    body,
	}
}

func apiJSONBody(respBody []byte) any {
	if len(respBody) == 0 {
		return nil
	}
	if !json.Valid(respBody) {
		return string(respBody)
	}
	pretty := &bytes.Buffer{}
	if err := json.Indent(pretty, respBody, "", "  "); err != nil {
		return json.RawMessage(respBody)
	}
	return json.RawMessage(pretty.Bytes())
}

// buildRequestBody constructs the request body from fields and/or input file/inline JSON
func buildRequestBody(cmd *cobra.Command, fields, rawFields []string, inputFile, jsonBody string) (api.Params, error) {
	body := make(api.Params)

	// Parse inline JSON body first (can be overridden by fields)
	if jsonBody != "" {
		if err := json.Unmarshal([]byte(jsonBody), &body); err != nil {
			return nil, fmt.Errorf("failed to parse --body JSON: %w", err)
		}
	}

	// Read from input file (can be overridden by fields)
	if inputFile != "" {
		var inputData []byte
		var err error
		if inputFile == "-" {
			inputData, err = io.ReadAll(iocontext.GetIO(cmd.Context()).In)
		} else {
			var s string
			s, err = readInput(cmd, "@"+inputFile)
			inputData = []byte(s)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		if err := json.Unmarshal(inputData, &body); err != nil {
			return nil, fmt.Errorf("failed to parse input JSON: %w", err)
		}
	}

	for _, field := range fields {
		key, value, err := parseField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}

	for _, field := range rawFields {
		key, value, err := parseRawField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}

	// Return nil if no body content
	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}

// buildForm turns --form values into a multipart form.
func buildForm(values []string) (*api.Form, error) {
	form := api.NewForm()
	for _, v := range values {
		key, value, err := parseField(v)
		if err != nil {
			return nil, err
		}
		if path, ok := strings.CutPrefix(value, "@"); ok {
			if err := form.FileFromPath(key, path); err != nil {
				return nil, err
			}
			continue
		}
		form.Field(key, value)
	}
	return form, nil
}

// parseField parses a key=value field where value is a string
func parseField(field string) (string, string, error) {
	key, value, ok := strings.Cut(field, "=")
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid field format %q: must be key=value", field)
	}
	return key, value, nil
}

// parseRawField parses a key=value field where value is JSON
func parseRawField(field string) (string, any, error) {
	key, raw, ok := strings.Cut(field, "=")
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid raw field format %q: must be key=value", field)
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return "", nil, fmt.Errorf("invalid JSON in raw field %q: %w", key, err)
	}
	return key, value, nil
}
