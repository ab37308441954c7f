package cmd

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionsModelsCommand(t *testing.T) {
	srv := setupMockServer(t)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"completions", "models", "--json"}); err != nil {
			t.Fatalf("completions models failed: %v", err)
		}
	})
	items := decodeData(t, output)
	require.Len(t, items, 4)
	assert.Equal(t, "gpt-3.5-turbo", items[0]["value"])
	assert.Equal(t, "openai", items[0]["description"])

	// Served from the models cache the second time.
	_ = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"completions", "models"}); err != nil {
			t.Fatalf("completions models failed: %v", err)
		}
	})
	assert.Equal(t, 1, countRequests(srv, http.MethodGet, "/v1/models"))
}

func TestCompletionsFilesCommand_InvalidatedByUpload(t *testing.T) {
	setupMockServer(t)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"completions", "files"}); err != nil {
			t.Fatalf("completions files failed: %v", err)
		}
	})
	assert.Empty(t, strings.TrimSpace(output))

	id := uploadFixture(t, "train.jsonl", "{}\n")

	output = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"completions", "files"}); err != nil {
			t.Fatalf("completions files failed: %v", err)
		}
	})
	assert.Contains(t, output, id)
	assert.Contains(t, output, "train.jsonl")
}

func TestCompletionsStaticCommands(t *testing.T) {
	isolateEnv(t)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"completions", "roles"}); err != nil {
			t.Fatalf("completions roles failed: %v", err)
		}
	})
	for _, role := range []string{"system", "user", "assistant"} {
		assert.Contains(t, output, role)
	}

	output = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"completions", "api-types", "--jq", "[.data[].value]", "--compact-json"}); err != nil {
			t.Fatalf("completions api-types failed: %v", err)
		}
	})
	assert.Equal(t, `["openai","azure"]`, strings.TrimSpace(output))
}

func TestShellCompletion_ModelIDs(t *testing.T) {
	setupMockServer(t)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"__complete", "models", "get", "gpt-4", "gpt"}); err != nil {
			t.Fatalf("__complete failed: %v", err)
		}
	})
	assert.Contains(t, output, "gpt-3.5-turbo")
	assert.NotContains(t, output, "gpt-4\t", "already given arguments are not offered")
	assert.NotContains(t, output, "whisper-1")
	assert.Contains(t, output, ":4", "file completion is disabled")
}
