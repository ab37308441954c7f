package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImagesGenerateCommand(t *testing.T) {
	srv := setupMockServer(t)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"images", "generate", "a lighthouse at dusk", "-n", "2", "--size", "512x512"}); err != nil {
			t.Fatalf("images generate failed: %v", err)
		}
	})

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "https://images.example.test/img-"), line)
	}

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "/v1/images/generations", req.Path)
	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, "a lighthouse at dusk", body["prompt"])
	assert.EqualValues(t, 2, body["n"])
	assert.Equal(t, "512x512", body["size"])
}

func TestImagesGenerateCommand_JSON(t *testing.T) {
	setupMockServer(t)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"images", "generate", "a cat", "--jq", ".data[0].url"}); err != nil {
			t.Fatalf("images generate failed: %v", err)
		}
	})
	assert.Contains(t, output, "https://images.example.test/img-")
}

func TestImagesEditCommand(t *testing.T) {
	var contentType, prompt, imageName string
	handler := newRouteHandler().
		On("POST", "/v1/images/edits", func(w http.ResponseWriter, r *http.Request) {
			contentType = r.Header.Get("Content-Type")
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				prompt = r.FormValue("prompt")
				if fh := r.MultipartForm.File["image"]; len(fh) == 1 {
					imageName = fh[0].Filename
				}
			}
			jsonResponse(200, `{"created":1,"data":[{"b64_json":"aGVsbG8="}]}`)(w, r)
		})
	setupTestEnvWithHandler(t, handler)
	image := writeTempFile(t, "room.png", "\x89PNG fake")

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"images", "edit", "--image", image, "--prompt", "add a plant", "--response-format", "b64_json"}); err != nil {
			t.Fatalf("images edit failed: %v", err)
		}
	})

	assert.True(t, strings.HasPrefix(contentType, "multipart/form-data"))
	assert.Equal(t, "add a plant", prompt)
	assert.Equal(t, "room.png", imageName)
	assert.Contains(t, output, "image 1: 8 bytes of base64")
}

func TestImagesEditCommand_RequiresImage(t *testing.T) {
	setupTestEnvWithHandler(t, newRouteHandler())

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"images", "edit", "--prompt", "x"})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image")
}

func TestImagesVariationsCommand(t *testing.T) {
	var n string
	handler := newRouteHandler().
		On("POST", "/v1/images/variations", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				n = r.FormValue("n")
			}
			jsonResponse(200, `{"created":1,"data":[{"url":"https://img.test/1.png"},{"url":"https://img.test/2.png"}]}`)(w, r)
		})
	setupTestEnvWithHandler(t, handler)
	image := writeTempFile(t, "logo.png", "png")

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"images", "variations", "--image", image, "-n", "2"}); err != nil {
			t.Fatalf("images variations failed: %v", err)
		}
	})
	assert.Equal(t, "2", n)
	assert.Equal(t, "https://img.test/1.png\nhttps://img.test/2.png\n", output)
}
