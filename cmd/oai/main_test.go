package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func stubRun(t *testing.T, exec func(context.Context, []string) error, mapCode func(error) int) {
	t.Helper()
	origExec, origMap := executeCmd, mapExitCode
	t.Cleanup(func() {
		executeCmd = origExec
		mapExitCode = origMap
	})
	executeCmd = exec
	mapExitCode = mapCode
}

func TestRun_Success(t *testing.T) {
	var gotArgs []string
	stubRun(t, func(_ context.Context, args []string) error {
		gotArgs = append([]string(nil), args...)
		return nil
	}, func(error) int {
		t.Fatal("mapExitCode should not be called on success")
		return 99
	})

	if code := run(context.Background(), []string{"models", "list", "--json"}); code != 0 {
		t.Fatalf("run() code = %d, want 0", code)
	}
	if fmt.Sprint(gotArgs) != "[models list --json]" {
		t.Fatalf("args = %v", gotArgs)
	}
}

func TestRun_ErrorUsesMappedExitCode(t *testing.T) {
	executeErr := errors.New("boom")
	called := false
	stubRun(t, func(context.Context, []string) error {
		return executeErr
	}, func(err error) int {
		called = true
		if !errors.Is(err, executeErr) {
			t.Fatalf("mapExitCode got %v, want %v", err, executeErr)
		}
		return 7
	})

	if code := run(context.Background(), []string{"chat", "hi"}); code != 7 {
		t.Fatalf("run() code = %d, want 7", code)
	}
	if !called {
		t.Fatal("expected mapExitCode to be called")
	}
}

func TestRun_PassesCancelableContext(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	stubRun(t, func(ctx context.Context, _ []string) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}, func(err error) int {
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("mapExitCode got %v, want context.Canceled", err)
		}
		return 130
	})

	if code := run(parent, nil); code != 130 {
		t.Fatalf("run() code = %d, want 130", code)
	}
}

func TestMain_UsesTerminate(t *testing.T) {
	origTerminate := terminate
	t.Cleanup(func() { terminate = origTerminate })
	stubRun(t, func(context.Context, []string) error { return nil }, func(error) int { return 1 })

	got := -1
	terminate = func(code int) { got = code }
	main()
	if got != 0 {
		t.Fatalf("terminate called with %d, want 0", got)
	}
}
