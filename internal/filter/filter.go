// Package filter runs jq expressions against decoded API responses.
package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/itchyny/gojq"
)

// Query is a compiled jq expression. Expressions may refer to $now, the
// current time in unix seconds, which pairs with the created fields the API
// returns: select(.created_at > $now - 86400).
type Query struct {
	expr     string
	code     *gojq.Code
	iterates bool
}

// Compile parses and compiles expr. Shells that escape "!" inside single
// quotes leave "\!", which is read as "!".
func Compile(expr string) (*Query, error) {
	expr = strings.ReplaceAll(strings.TrimSpace(expr), `\!`, `!`)
	parsed, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expr, err)
	}
	code, err := gojq.Compile(parsed, gojq.WithVariables([]string{"$now"}))
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expr, err)
	}
	return &Query{expr: expr, code: code, iterates: iteratesRoot(expr)}, nil
}

// String returns the normalized expression.
func (q *Query) String() string {
	return q.expr
}

// Run evaluates the query. One result is returned as is and several as a
// slice. When an expression that iterates the root fails on a list
// response ({"object":"list","data":[...]}), it is retried on the data
// array so ".[] | .id" works on listings.
func (q *Query) Run(ctx context.Context, v any) (any, error) {
	results, err := q.collect(ctx, v)
	if err != nil && q.iterates {
		if data, ok := listData(v); ok {
			if retried, retryErr := q.collect(ctx, data); retryErr == nil {
				results, err = retried, nil
			}
		}
	}
	if err != nil {
		return nil, err
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

func (q *Query) collect(ctx context.Context, v any) ([]any, error) {
	iter := q.code.RunWithContext(ctx, v, int(time.Now().Unix()))
	var results []any
	for {
		r, ok := iter.Next()
		if !ok {
			return results, nil
		}
		if err, ok := r.(error); ok {
			return nil, fmt.Errorf("jq: %w", err)
		}
		results = append(results, r)
	}
}

// Apply compiles expr and runs it against v once. An empty expression
// returns v unchanged.
func Apply(ctx context.Context, v any, expr string) (any, error) {
	if strings.TrimSpace(expr) == "" {
		return v, nil
	}
	q, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	generic, err := Generic(v)
	if err != nil {
		return nil, err
	}
	return q.Run(ctx, generic)
}

// Generic converts typed values (structs, typed slices and maps) into the
// map[string]any / []any form jq operates on.
func Generic(v any) (any, error) {
	switch v.(type) {
	case nil, bool, string, float64:
		return v, nil
	}
	var data []byte
	switch t := v.(type) {
	case json.RawMessage:
		data = t
	case []byte:
		data = t
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return nil, fmt.Errorf("encode for jq: %w", err)
		}
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return out, nil
}

func listData(v any) ([]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	data, ok := m["data"].([]any)
	return data, ok
}

func iteratesRoot(expr string) bool {
	for _, prefix := range []string{".[]", "[.[]", "(.[]", "map("} {
		if strings.HasPrefix(expr, prefix) {
			return true
		}
	}
	return false
}
