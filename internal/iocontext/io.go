// Package iocontext carries a command's stdio streams in its context so the
// same command can run against the terminal or against buffers.
package iocontext

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// IO holds the streams a command reads from and writes to.
type IO struct {
	Out    io.Writer // stdout
	ErrOut io.Writer // stderr
	In     io.Reader // stdin
}

// DefaultIO binds the process streams as they are at call time, so a
// redirected os.Stdout is picked up.
func DefaultIO() *IO {
	return &IO{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		In:     os.Stdin,
	}
}

// Buffered returns streams backed by memory, with stdin preloaded.
func Buffered(stdin string) (*IO, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &IO{Out: out, ErrOut: errOut, In: strings.NewReader(stdin)}, out, errOut
}

// Silenced returns a copy with stdout and/or stderr discarded.
func (s *IO) Silenced(stdout, stderr bool) *IO {
	c := *s
	if stdout {
		c.Out = io.Discard
	}
	if stderr {
		c.ErrOut = io.Discard
	}
	return &c
}

// InIsTerminal reports whether stdin is an interactive terminal. Pipes,
// files and buffers are not.
func (s *IO) InIsTerminal() bool {
	f, ok := s.In.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type ioKey struct{}

// WithIO adds IO streams to a context.
func WithIO(ctx context.Context, streams *IO) context.Context {
	return context.WithValue(ctx, ioKey{}, streams)
}

// GetIO retrieves IO streams from context, defaulting to standard streams.
func GetIO(ctx context.Context) *IO {
	if streams, ok := ctx.Value(ioKey{}).(*IO); ok && streams != nil {
		return streams
	}
	return DefaultIO()
}
