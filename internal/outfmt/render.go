package outfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"text/template"
	"time"

	"github.com/salmonumbrella/openai-cli/internal/filter"
)

// Render writes v according to o. Slices are wrapped as list objects
// first, so a query sees the same shape the API returns for listings.
func Render(ctx context.Context, w io.Writer, v any, o Options) error {
	v, err := shape(ctx, v, o.Query)
	if err != nil {
		return err
	}
	switch {
	case o.Template != "":
		return writeTemplate(w, v, o.Template)
	case o.Mode == JSONL:
		return writeLines(w, v)
	default:
		return encode(w, v, o.Compact)
	}
}

// WriteFiltered writes one document with an optional jq query applied.
func WriteFiltered(ctx context.Context, w io.Writer, v any, query string, compact bool) error {
	v, err := shape(ctx, v, query)
	if err != nil {
		return err
	}
	return encode(w, v, compact)
}

// WriteJSON writes v indented.
func WriteJSON(w io.Writer, v any) error {
	return encode(w, v, false)
}

func shape(ctx context.Context, v any, query string) (any, error) {
	v = asList(v)
	if query == "" {
		return v, nil
	}
	return filter.Apply(ctx, v, query)
}

func encode(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// asList wraps slices as {"object":"list","data":[...]}. A nil slice
// becomes an empty data array so ".data[]" never sees null.
func asList(v any) any {
	switch v.(type) {
	case nil, []byte, json.RawMessage:
		return v
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return v
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return map[string]any{"object": "list", "data": []any{}}
	}
	return map[string]any{"object": "list", "data": rv.Interface()}
}

// writeLines splits a list (or its data array) into one line per element.
func writeLines(w io.Writer, v any) error {
	generic, err := filter.Generic(v)
	if err != nil {
		return err
	}
	var items []any
	switch t := generic.(type) {
	case []any:
		items = t
	case map[string]any:
		data, ok := t["data"].([]any)
		if !ok {
			return encode(w, t, true)
		}
		items = data
	default:
		return encode(w, t, true)
	}
	for _, item := range items {
		if err := encode(w, item, true); err != nil {
			return err
		}
	}
	return nil
}

var templateFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		var buf bytes.Buffer
		if err := encode(&buf, v, false); err != nil {
			return "", err
		}
		return buf.String(), nil
	},
	// unix formats the created/created_at seconds the API returns.
	"unix": func(v any) string {
		var sec int64
		switch t := v.(type) {
		case float64:
			sec = int64(t)
		case int64:
			sec = t
		case int:
			sec = int64(t)
		default:
			return ""
		}
		return time.Unix(sec, 0).UTC().Format(time.RFC3339)
	},
}

var templatePosition = regexp.MustCompile(`:(\d+):(\d+):`)

func writeTemplate(w io.Writer, v any, body string) error {
	generic, err := filter.Generic(v)
	if err != nil {
		return err
	}
	t, err := template.New("output").Funcs(templateFuncs).Option("missingkey=zero").Parse(body)
	if err != nil {
		return templateError("invalid template", err)
	}
	if err := t.Execute(w, generic); err != nil {
		return templateError("template execution error", err)
	}
	return nil
}

func templateError(kind string, err error) error {
	if m := templatePosition.FindStringSubmatch(err.Error()); len(m) == 3 {
		return fmt.Errorf("%s at line %s, column %s: %w", kind, m[1], m[2], err)
	}
	return fmt.Errorf("%s: %w", kind, err)
}
