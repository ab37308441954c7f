// Package mockserver is an in-memory fake of the OpenAI REST API. It serves
// both the direct URL shape (/{version}/...) with Bearer auth and the gateway
// shape (/openai/...?api-version=) with api-key auth.
package mockserver

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
)

// Created is the timestamp stamped on every generated object.
const Created int64 = 1700000000

// DefaultModels are listed when Options.Models is empty.
var DefaultModels = []string{"gpt-3.5-turbo", "gpt-4", "text-embedding-ada-002", "whisper-1"}

// Options configures a Server.
type Options struct {
	// AccessToken is the credential every request must carry. Empty accepts
	// any non-empty credential.
	AccessToken string
	// APIVersion is the path prefix of direct requests. Defaults to "v1".
	APIVersion string
	Models     []string
	// ChunkDelay is slept between streamed chunks.
	ChunkDelay time.Duration
	// Logging adds gin's request logger.
	Logging bool
}

// Request is a request as the server received it.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Server holds the fake API state.
type Server struct {
	opts   Options
	engine *gin.Engine

	mu       sync.Mutex
	models   []openai.Model
	files    []openai.File
	content  map[string][]byte
	nextID   int
	requests []Request
}

// New builds a Server with its routes registered.
func New(opts Options) *Server {
	if opts.APIVersion == "" {
		opts.APIVersion = "v1"
	}
	if len(opts.Models) == 0 {
		opts.Models = DefaultModels
	}

	s := &Server{opts: opts, content: map[string][]byte{}}
	for _, id := range opts.Models {
		s.models = append(s.models, openai.Model{
			ID:        id,
			Object:    "model",
			CreatedAt: Created,
			OwnedBy:   "openai",
		})
	}

	engine := gin.New()
	engine.UseRawPath = true
	engine.Use(gin.Recovery())
	if opts.Logging {
		engine.Use(gin.Logger())
	}
	engine.Use(s.record, s.requestID)
	engine.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "invalid_request_error",
			fmt.Sprintf("Invalid URL (%s %s)", c.Request.Method, c.Request.URL.Path))
	})

	s.routes(engine.Group("/"+strings.Trim(opts.APIVersion, "/"), s.bearerAuth))
	gateway := engine.Group("/openai", s.apiKeyAuth)
	s.routes(gateway)
	s.routes(gateway.Group("/deployments/:deployment"))

	s.engine = engine
	return s
}

// Handler returns the HTTP handler, for httptest.NewServer or http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) routes(g *gin.RouterGroup) {
	g.GET("/models", s.listModels)
	g.GET("/models/:id", s.getModel)
	g.DELETE("/models/:id", s.deleteModel)

	g.POST("/chat/completions", s.chatCompletions)
	g.POST("/completions", s.completions)
	g.POST("/embeddings", s.embeddings)
	g.POST("/moderations", s.moderations)
	g.POST("/images/generations", s.imageGenerations)

	g.GET("/files", s.listFiles)
	g.POST("/files", s.uploadFile)
	g.GET("/files/:id", s.getFile)
	g.GET("/files/:id/content", s.fileContent)
	g.DELETE("/files/:id", s.deleteFile)

	g.POST("/audio/transcriptions", s.audio)
	g.POST("/audio/translations", s.audio)
}

func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.Query(),
		Header: c.Request.Header.Clone(),
		Body:   body,
	})
	n := len(s.requests)
	s.mu.Unlock()
	c.Set("request_number", n)
	c.Next()
}

func (s *Server) requestID(c *gin.Context) {
	c.Header("X-Request-Id", fmt.Sprintf("req_%d", c.GetInt("request_number")))
	c.Next()
}

func (s *Server) bearerAuth(c *gin.Context) {
	if c.Query("api-version") != "" {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", "api-version is not a valid parameter on this endpoint")
		return
	}
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || !s.accepts(token) {
		abortWithError(c, http.StatusUnauthorized, "invalid_request_error", "Incorrect API key provided")
		return
	}
	c.Next()
}

func (s *Server) apiKeyAuth(c *gin.Context) {
	if c.Query("api-version") == "" {
		abortWithError(c, http.StatusNotFound, "invalid_request_error", "Resource not found")
		return
	}
	if c.GetHeader("Authorization") != "" || c.GetHeader("OpenAI-Organization") != "" {
		abortWithError(c, http.StatusBadRequest, "invalid_request_error", "unexpected OpenAI credential headers on gateway endpoint")
		return
	}
	if !s.accepts(c.GetHeader("api-key")) {
		abortWithError(c, http.StatusUnauthorized, "invalid_request_error", "Access denied due to invalid subscription key")
		return
	}
	c.Next()
}

func (s *Server) accepts(token string) bool {
	if token == "" {
		return false
	}
	return s.opts.AccessToken == "" || token == s.opts.AccessToken
}

func (s *Server) newID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func abortWithError(c *gin.Context, status int, typ, message string) {
	c.AbortWithStatusJSON(status, openai.ErrorResponse{
		Error: &openai.APIError{Type: typ, Message: message},
	})
}
