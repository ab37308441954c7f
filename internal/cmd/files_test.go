package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmonumbrella/openai-cli/internal/mockserver"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// uploadFixture uploads content through the CLI and returns the new file ID.
func uploadFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := writeTempFile(t, name, content)
	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"files", "upload", path, "--json"}); err != nil {
			t.Fatalf("files upload failed: %v", err)
		}
	})
	id, _ := decodeObject(t, output)["id"].(string)
	if id == "" {
		t.Fatalf("upload returned no id: %s", output)
	}
	return id
}

func TestFilesUploadCommand(t *testing.T) {
	srv := setupMockServer(t)
	path := writeTempFile(t, "train.jsonl", `{"prompt":"a","completion":"b"}`+"\n")

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"files", "upload", path, "--purpose", "search"}); err != nil {
			t.Fatalf("files upload failed: %v", err)
		}
	})
	assert.Contains(t, output, "Uploaded file file-1: train.jsonl")

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "/v1/files", req.Path)
	assert.True(t, strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data; boundary="))
	assert.Contains(t, string(req.Body), `name="purpose"`)
	assert.Contains(t, string(req.Body), "search")
	assert.Contains(t, string(req.Body), `filename="train.jsonl"`)
}

func TestFilesUploadCommand_MissingPath(t *testing.T) {
	setupMockServer(t)

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"files", "upload", filepath.Join(t.TempDir(), "nope.jsonl")})
	})
	require.Error(t, err)
	assert.Contains(t, stderr, "nope.jsonl")
}

func TestFilesListCommand(t *testing.T) {
	setupMockServer(t)

	var output string
	stderr := captureStderr(t, func() {
		output = captureStdout(t, func() {
			if err := Execute(context.Background(), []string{"files", "list"}); err != nil {
				t.Fatalf("files list failed: %v", err)
			}
		})
	})
	assert.Empty(t, output)
	assert.Contains(t, stderr, "No files found")

	uploadFixture(t, "a.jsonl", "{}\n")
	uploadFixture(t, "b.jsonl", "{}\n{}\n")

	output = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"files", "list", "--json"}); err != nil {
			t.Fatalf("files list failed: %v", err)
		}
	})
	data := decodeData(t, output)
	require.Len(t, data, 2)
	assert.Equal(t, "a.jsonl", data[0]["filename"])
	assert.Equal(t, "fine-tune", data[1]["purpose"])
	assert.EqualValues(t, 6, data[1]["bytes"])
}

func TestFilesListCommand_Filters(t *testing.T) {
	setupMockServer(t)
	uploadFixture(t, "a.jsonl", "{}\n")

	tests := []struct {
		name  string
		args  []string
		count int
	}{
		{"purpose match", []string{"--purpose", "Fine-Tune"}, 1},
		{"purpose miss", []string{"--purpose", "assistants"}, 0},
		{"since day of upload", []string{"--since", "2023-11-14"}, 1},
		{"since later", []string{"--since", "2023-11-16"}, 0},
		{"since unix", []string{"--since", "1700000000"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureStdout(t, func() {
				args := append([]string{"files", "list", "--json"}, tt.args...)
				if err := Execute(context.Background(), args); err != nil {
					t.Fatalf("files list failed: %v", err)
				}
			})
			assert.Len(t, decodeData(t, output), tt.count)
		})
	}

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"files", "list", "--since", "soon"})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --since")
	assert.Equal(t, exitUsage, ExitCode(err))
}

func TestFilesGetCommand(t *testing.T) {
	setupMockServer(t)
	id := uploadFixture(t, "a.jsonl", "{}\n")

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"files", "get", id}); err != nil {
			t.Fatalf("files get failed: %v", err)
		}
	})
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, id)
	assert.Contains(t, output, "uploaded")

	var err error
	stderr := captureStderr(t, func() {
		_ = captureStdout(t, func() {
			err = Execute(context.Background(), []string{"files", "get", "file-404"})
		})
	})
	require.Error(t, err)
	assert.Equal(t, exitNotFound, ExitCode(err))
	assert.Contains(t, stderr, "No such File object: file-404")
}

func TestFilesContentCommand(t *testing.T) {
	setupMockServer(t)
	id := uploadFixture(t, "data.jsonl", "line one\nline two\n")

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"files", "content", id}); err != nil {
			t.Fatalf("files content failed: %v", err)
		}
	})
	assert.Equal(t, "line one\nline two\n", output)

	dest := filepath.Join(t.TempDir(), "out.jsonl")
	output = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"files", "content", id, "-O", dest}); err != nil {
			t.Fatalf("files content -O failed: %v", err)
		}
	})
	assert.Contains(t, output, "Saved file "+id+": "+dest)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))
}

func TestFilesDeleteCommand(t *testing.T) {
	srv := setupMockServer(t)
	first := uploadFixture(t, "a.jsonl", "{}\n")
	second := uploadFixture(t, "b.jsonl", "{}\n")

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"files", "delete", first, second, "--yes", "--json"}); err != nil {
			t.Fatalf("files delete failed: %v", err)
		}
	})
	items := decodeData(t, output)
	require.Len(t, items, 2)
	assert.Equal(t, first, items[0]["id"])
	assert.Equal(t, true, items[1]["success"])

	assert.Equal(t, 2, countRequestsWithPrefix(srv, "DELETE", "/v1/files/"))
}

func TestFilesDeleteCommand_Cancelled(t *testing.T) {
	srv := setupMockServer(t)
	withStdin(t, "n\n")

	var output string
	stderr := captureStderr(t, func() {
		output = captureStdout(t, func() {
			if err := Execute(context.Background(), []string{"files", "delete", "file-1"}); err != nil {
				t.Fatalf("files delete failed: %v", err)
			}
		})
	})
	assert.Empty(t, output)
	assert.Contains(t, stderr, "Cancelled.")
	assert.Equal(t, 0, countRequestsWithPrefix(srv, "DELETE", "/v1/files/"))
}

func countRequestsWithPrefix(srv *mockserver.Server, method, prefix string) int {
	n := 0
	for _, r := range srv.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			n++
		}
	}
	return n
}
