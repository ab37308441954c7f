// Command oai-mock serves a deterministic fake of the OpenAI REST API, in
// both the direct (/v1/...) and Azure (/openai/deployments/...) URL shapes,
// for trying the CLI without a real account.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/salmonumbrella/openai-cli/internal/mockserver"
)

type options struct {
	addr       string
	token      string
	apiVersion string
	models     []string
	chunkDelay time.Duration
	debug      bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := pflag.NewFlagSet("oai-mock", pflag.ContinueOnError)
	fs.StringVar(&o.addr, "addr", "127.0.0.1:8089", "Listen address")
	fs.StringVar(&o.token, "token", "", "Required access token (empty accepts any)")
	fs.StringVar(&o.apiVersion, "api-version", "v1", "Path prefix of direct requests")
	fs.StringSliceVar(&o.models, "model", nil, "Model IDs to serve (repeatable; default a fixed set)")
	fs.DurationVar(&o.chunkDelay, "chunk-delay", 0, "Pause between streamed chunks")
	fs.BoolVar(&o.debug, "debug", false, "Log every request")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func newServer(o options) *http.Server {
	if o.debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	fake := mockserver.New(mockserver.Options{
		AccessToken: o.token,
		APIVersion:  o.apiVersion,
		Models:      o.models,
		ChunkDelay:  o.chunkDelay,
		Logging:     o.debug,
	})
	return &http.Server{
		Addr:              o.addr,
		Handler:           fake.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func run(ctx context.Context, args []string) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	srv := newServer(o)

	errc := make(chan error, 1)
	go func() {
		slog.Info("oai-mock listening", "addr", o.addr, "api_version", o.apiVersion)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("oai-mock shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil && !errors.Is(err, pflag.ErrHelp) {
		slog.Error("oai-mock failed", "error", err)
		os.Exit(1)
	}
}
