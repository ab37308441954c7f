package outfmt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter writes one command's result: a table in text mode, the
// rendered value otherwise.
type Formatter struct {
	ctx    context.Context
	out    io.Writer
	errOut io.Writer
	tw     *tabwriter.Writer
}

func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{
		ctx:    ctx,
		out:    out,
		errOut: errOut,
		tw:     tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
	}
}

// Output renders data in JSON, JSONL or template form. It writes nothing
// in text mode, where callers build a table instead.
func (f *Formatter) Output(data any) error {
	if !IsJSON(f.ctx) {
		return nil
	}
	return Render(f.ctx, f.out, data, FromContext(f.ctx))
}

// StartTable writes the header row and reports whether a table is wanted.
func (f *Formatter) StartTable(headers []string) bool {
	if IsJSON(f.ctx) {
		return false
	}
	f.Row(headers...)
	return true
}

func (f *Formatter) Row(columns ...string) {
	_, _ = fmt.Fprintln(f.tw, strings.Join(columns, "\t"))
}

func (f *Formatter) EndTable() error {
	return f.tw.Flush()
}

// Empty reports an empty result on stderr.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}
