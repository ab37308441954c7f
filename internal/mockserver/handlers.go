package mockserver

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
)

func (s *Server) listModels(c *gin.Context) {
	s.mu.Lock()
	models := append([]openai.Model(nil), s.models...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": models})
}

func (s *Server) getModel(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.models {
		if m.ID == id {
			c.JSON(http.StatusOK, m)
			return
		}
	}
	abortWithError(c, http.StatusNotFound, "invalid_request_error", fmt.Sprintf("The model '%s' does not exist", id))
}

func (s *Server) deleteModel(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.models {
		if m.ID == id {
			s.models = append(s.models[:i], s.models[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"id": id, "object": "model", "deleted": true})
			return
		}
	}
	abortWithError(c, http.StatusNotFound, "invalid_request_error", fmt.Sprintf("The model '%s' does not exist", id))
}

func (s *Server) chatCompletions(c *gin.Context) {
	var req openai.ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}
	model := modelFor(c, req.Model)
	if model == "" || len(req.Messages) == 0 {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", "model and messages are required")
		return
	}
	reply := "echo: " + req.Messages[len(req.Messages)-1].Content
	id := s.newID("chatcmpl")

	if !req.Stream {
		c.JSON(http.StatusOK, openai.ChatCompletionResponse{
			ID:      id,
			Object:  "chat.completion",
			Created: Created,
			Model:   model,
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: usage(req.Messages[len(req.Messages)-1].Content, reply),
		})
		return
	}

	words := splitWords(reply)
	chunks := make([]any, 0, len(words)+1)
	for i, w := range words {
		delta := openai.ChatCompletionStreamChoiceDelta{Content: w}
		if i == 0 {
			delta.Role = openai.ChatMessageRoleAssistant
		}
		chunks = append(chunks, openai.ChatCompletionStreamResponse{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: Created,
			Model:   model,
			Choices: []openai.ChatCompletionStreamChoice{{Index: 0, Delta: delta}},
		})
	}
	chunks = append(chunks, openai.ChatCompletionStreamResponse{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: Created,
		Model:   model,
		Choices: []openai.ChatCompletionStreamChoice{{Index: 0, FinishReason: openai.FinishReasonStop}},
	})
	s.writeEvents(c, chunks)
}

func (s *Server) completions(c *gin.Context) {
	var req openai.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}
	model := modelFor(c, req.Model)
	prompt, _ := req.Prompt.(string)
	if model == "" {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", "model is required")
		return
	}
	text := " echo: " + prompt
	id := s.newID("cmpl")

	chunk := func(t string, finish string) openai.CompletionResponse {
		return openai.CompletionResponse{
			ID:      id,
			Object:  "text_completion",
			Created: Created,
			Model:   model,
			Choices: []openai.CompletionChoice{{Text: t, Index: 0, FinishReason: finish}},
		}
	}
	if !req.Stream {
		c.JSON(http.StatusOK, chunk(text, "stop"))
		return
	}
	var chunks []any
	for _, w := range splitWords(text) {
		chunks = append(chunks, chunk(w, ""))
	}
	chunks = append(chunks, chunk("", "stop"))
	s.writeEvents(c, chunks)
}

func (s *Server) embeddings(c *gin.Context) {
	var req struct {
		Model string `json:"model"`
		Input any    `json:"input"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}
	inputs, ok := inputStrings(req.Input)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", "input must be a string or an array of strings")
		return
	}
	data := make([]openai.Embedding, len(inputs))
	tokens := 0
	for i, in := range inputs {
		data[i] = openai.Embedding{Object: "embedding", Embedding: vector(in), Index: i}
		tokens += len(strings.Fields(in))
	}
	c.JSON(http.StatusOK, openai.EmbeddingResponse{
		Object: "list",
		Data:   data,
		Model:  openai.EmbeddingModel(modelFor(c, req.Model)),
		Usage:  openai.Usage{PromptTokens: tokens, TotalTokens: tokens},
	})
}

func (s *Server) moderations(c *gin.Context) {
	var req struct {
		Input any    `json:"input"`
		Model string `json:"model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}
	inputs, ok := inputStrings(req.Input)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", "input must be a string or an array of strings")
		return
	}
	results := make([]openai.Result, len(inputs))
	for i, in := range inputs {
		results[i] = openai.Result{Flagged: strings.Contains(strings.ToLower(in), "flag-me")}
	}
	model := req.Model
	if model == "" {
		model = "text-moderation-latest"
	}
	c.JSON(http.StatusOK, openai.ModerationResponse{ID: s.newID("modr"), Model: model, Results: results})
}

func (s *Server) imageGenerations(c *gin.Context) {
	var req openai.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", "prompt is required")
		return
	}
	n := req.N
	if n <= 0 {
		n = 1
	}
	data := make([]openai.ImageResponseDataInner, n)
	for i := range data {
		data[i] = openai.ImageResponseDataInner{URL: fmt.Sprintf("https://images.example.test/%s.png", s.newID("img"))}
	}
	c.JSON(http.StatusOK, openai.ImageResponse{Created: Created, Data: data})
}

func (s *Server) listFiles(c *gin.Context) {
	s.mu.Lock()
	files := append([]openai.File(nil), s.files...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": files})
}

func (s *Server) uploadFile(c *gin.Context) {
	purpose := c.PostForm("purpose")
	if purpose == "" {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", "purpose is required")
		return
	}
	name, data, ok := readFormFile(c, "file")
	if !ok {
		return
	}
	file := openai.File{
		ID:        s.newID("file"),
		Object:    "file",
		Bytes:     len(data),
		CreatedAt: Created,
		FileName:  name,
		Purpose:   purpose,
		Status:    "uploaded",
	}
	s.mu.Lock()
	s.files = append(s.files, file)
	s.content[file.ID] = data
	s.mu.Unlock()
	c.JSON(http.StatusOK, file)
}

func (s *Server) getFile(c *gin.Context) {
	if file, ok := s.findFile(c.Param("id")); ok {
		c.JSON(http.StatusOK, file)
		return
	}
	abortWithError(c, http.StatusNotFound, "invalid_request_error", fmt.Sprintf("No such File object: %s", c.Param("id")))
}

func (s *Server) fileContent(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	data, ok := s.content[id]
	s.mu.Unlock()
	if !ok {
		abortWithError(c, http.StatusNotFound, "invalid_request_error", fmt.Sprintf("No such File object: %s", id))
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (s *Server) deleteFile(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.files {
		if f.ID == id {
			s.files = append(s.files[:i], s.files[i+1:]...)
			delete(s.content, id)
			c.JSON(http.StatusOK, gin.H{"id": id, "object": "file", "deleted": true})
			return
		}
	}
	abortWithError(c, http.StatusNotFound, "invalid_request_error", fmt.Sprintf("No such File object: %s", id))
}

func (s *Server) findFile(id string) (openai.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		if f.ID == id {
			return f, true
		}
	}
	return openai.File{}, false
}

func (s *Server) audio(c *gin.Context) {
	if c.PostForm("model") == "" {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", "model is required")
		return
	}
	name, data, ok := readFormFile(c, "file")
	if !ok {
		return
	}
	task := "transcribe"
	if strings.HasSuffix(c.Request.URL.Path, "/translations") {
		task = "translate"
	}
	c.JSON(http.StatusOK, openai.AudioResponse{
		Task: task,
		Text: fmt.Sprintf("%s %s (%d bytes)", task, name, len(data)),
	})
}

// writeEvents streams chunks as server-sent events, then [DONE].
func (s *Server) writeEvents(c *gin.Context, chunks []any) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	for i, chunk := range chunks {
		if i > 0 && s.opts.ChunkDelay > 0 {
			select {
			case <-c.Request.Context().Done():
				return
			case <-time.After(s.opts.ChunkDelay):
			}
		}
		data, err := json.Marshal(chunk)
		if err != nil {
			return
		}
		_, _ = fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		c.Writer.Flush()
	}
	_, _ = io.WriteString(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}

func readFormFile(c *gin.Context, field string) (string, []byte, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", field+" is required")
		return "", nil, false
	}
	f, err := header.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return "", nil, false
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return "", nil, false
	}
	return header.Filename, data, true
}

// modelFor falls back to the deployment name on gateway routes.
func modelFor(c *gin.Context, model string) string {
	if model != "" {
		return model
	}
	return c.Param("deployment")
}

func splitWords(s string) []string {
	words := strings.SplitAfter(s, " ")
	out := words[:0]
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func inputStrings(v any) ([]string, bool) {
	switch in := v.(type) {
	case string:
		return []string{in}, true
	case []any:
		out := make([]string, 0, len(in))
		for _, item := range in {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, len(out) > 0
	default:
		return nil, false
	}
}

// vector derives a stable three-dimensional embedding from text.
func vector(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	sum := h.Sum32()
	return []float32{
		float32(sum&0xff) / 255,
		float32((sum>>8)&0xff) / 255,
		float32((sum>>16)&0xff) / 255,
	}
}

func usage(prompt, reply string) openai.Usage {
	p := len(strings.Fields(prompt))
	r := len(strings.Fields(reply))
	return openai.Usage{PromptTokens: p, CompletionTokens: r, TotalTokens: p + r}
}
