package paramfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_InlineJSON(t *testing.T) {
	params, err := Load(`{"model":"gpt-4","temperature":0.2,"stream":true}`)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", params["model"])
	assert.Equal(t, 0.2, params["temperature"])
	assert.Equal(t, true, params["stream"])
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.yaml")
	content := `model: gpt-3.5-turbo
messages:
  - role: system
    content: You are terse.
  - role: user
    content: Hi
max_tokens: 16
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	params, err := Load("@" + path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-3.5-turbo", params["model"])
	assert.Equal(t, 16, params["max_tokens"])

	encoded, err := json.Marshal(params)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"messages":[{"content":"You are terse.","role":"system"}`)
}

func TestLoad_Stdin(t *testing.T) {
	orig := Stdin
	Stdin = strings.NewReader("input: hello\n")
	t.Cleanup(func() { Stdin = orig })

	params, err := Load("@-")
	require.NoError(t, err)
	assert.Equal(t, "hello", params["input"])
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("@")
	assert.ErrorContains(t, err, "missing path")

	_, err = Load("@" + filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read")

	_, err = Load("[1, 2]")
	assert.ErrorContains(t, err, "expected an object")

	_, err = Load("model: [unterminated")
	assert.ErrorContains(t, err, "invalid params")
}

func TestDecode_Empty(t *testing.T) {
	params, err := Decode([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestDecode_NonStringKeys(t *testing.T) {
	params, err := Decode([]byte("logit_bias:\n  50256: -100\n"))
	require.NoError(t, err)
	bias, ok := params["logit_bias"].(map[string]any)
	require.True(t, ok, "got %T", params["logit_bias"])
	assert.Equal(t, -100, bias["50256"])
}

func TestSet(t *testing.T) {
	params := map[string]any{"model": "gpt-4"}
	require.NoError(t, Set(params, []string{
		"n=2",
		"stream=true",
		"user=alice",
		"response_format.type=json_object",
		"stop=",
	}))
	assert.Equal(t, 2, params["n"])
	assert.Equal(t, true, params["stream"])
	assert.Equal(t, "alice", params["user"])
	assert.Equal(t, map[string]any{"type": "json_object"}, params["response_format"])
	assert.Equal(t, "", params["stop"])

	assert.Error(t, Set(params, []string{"novalue"}))
	assert.Error(t, Set(params, []string{"=x"}))
}

func TestMerge(t *testing.T) {
	dst := map[string]any{
		"model":           "gpt-3.5-turbo",
		"response_format": map[string]any{"type": "text"},
	}
	src := map[string]any{
		"model":           "gpt-4",
		"response_format": map[string]any{"schema": "x"},
	}
	out := Merge(dst, src)
	assert.Equal(t, "gpt-4", out["model"])
	assert.Equal(t, map[string]any{"type": "text", "schema": "x"}, out["response_format"])

	assert.Equal(t, map[string]any{"a": 1}, Merge(nil, map[string]any{"a": 1}))
}
