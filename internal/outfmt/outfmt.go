// Package outfmt renders command results as tables, JSON, JSON lines or Go
// templates according to options carried on the context.
package outfmt

import (
	"context"
	"fmt"
)

// Mode selects how results are written.
type Mode int

const (
	// Text renders tables and plain values.
	Text Mode = iota
	// JSON writes one (optionally filtered) document.
	JSON
	// JSONL writes one compact document per list element.
	JSONL
)

// Parse reads a --output value.
func Parse(s string) (Mode, error) {
	switch s {
	case "", "text":
		return Text, nil
	case "json":
		return JSON, nil
	case "jsonl", "ndjson":
		return JSONL, nil
	}
	return Text, fmt.Errorf("invalid output format: %q (use 'text', 'json', 'jsonl' or 'ndjson')", s)
}

func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case JSONL:
		return "jsonl"
	default:
		return "text"
	}
}

// Options is the output configuration of one invocation.
type Options struct {
	Mode Mode
	// Query is a jq expression applied before writing.
	Query string
	// Template is a text/template body rendered instead of JSON.
	Template string
	// Compact disables indentation.
	Compact bool
}

type optionsKey struct{}

// WithOptions stores o on the context.
func WithOptions(ctx context.Context, o Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, o)
}

// FromContext returns the stored options, or text output when none were set.
func FromContext(ctx context.Context) Options {
	o, _ := ctx.Value(optionsKey{}).(Options)
	return o
}

// IsJSON reports whether structured output was requested.
func IsJSON(ctx context.Context) bool {
	m := FromContext(ctx).Mode
	return m == JSON || m == JSONL
}
