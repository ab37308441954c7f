package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/salmonumbrella/openai-cli/internal/debug"
)

// Params is a JSON request body given as a loose parameter map.
type Params map[string]any

// streamCallbackKey is stripped from Params before encoding so a callback
// smuggled into the map never reaches the wire.
const streamCallbackKey = "on_data"

// Client is the API client. One Client owns one memoized connection; create
// several Clients for independently configured deployments.
type Client struct {
	cfg  Config
	mode mode

	connOnce sync.Once
	connMu   sync.Mutex
	conn     *http.Client
	connErr  error
}

// Compile-time interface implementation checks
var (
	_ Dispatcher  = (*Client)(nil)
	_ URIResolver = (*Client)(nil)
)

// New creates a client whose settings are the given options layered over
// defaults. It fails with *ConfigError when no credential or base address
// is available from either source.
func New(defaults Config, opts ...Option) (*Client, error) {
	cfg, err := resolveConfig(defaults, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, mode: modes[cfg.APIType]}, nil
}

// Config returns a copy of the resolved configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// RequestTimeout returns the timeout applied to the connection.
func (c *Client) RequestTimeout() time.Duration {
	return c.cfg.RequestTimeout
}

// APIType returns the deployment mode.
func (c *Client) APIType() APIType {
	return c.cfg.APIType
}

// URI resolves a resource path to the full request URI for this client's mode.
func (c *Client) URI(path string) string {
	return c.mode.uri(c.cfg, path)
}

// Headers returns the base header set for this client's mode.
func (c *Client) Headers() http.Header {
	return c.mode.headers(c.cfg)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.executeRequest(ctx, http.MethodGet, path, nil, "", nil)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.executeRequest(ctx, http.MethodDelete, path, nil, "", nil)
}

// JSONPost encodes params as the JSON body of a POST request. When
// params["stream"] is true and onData is non-nil, the response is consumed
// as an event stream: onData receives every data frame in arrival order on
// the calling goroutine and the returned Response has an empty body.
func (c *Client) JSONPost(ctx context.Context, path string, params Params, onData StreamFunc) (*Response, error) {
	body, err := encodeParams(params)
	if err != nil {
		return nil, err
	}
	if !params.Streaming() {
		onData = nil
	}
	return c.executeRequest(ctx, http.MethodPost, path, body, "", onData)
}

// MultipartPost sends form as a multipart/form-data POST request.
func (c *Client) MultipartPost(ctx context.Context, path string, form *Form) (*Response, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return nil, err
	}
	return c.executeRequest(ctx, http.MethodPost, path, body, contentType, nil)
}

// Do performs a request with an arbitrary method and an optional JSON body.
// It exists for raw API access; the typed helpers above cover the API.
func (c *Client) Do(ctx context.Context, method, path string, params Params) (*Response, error) {
	var body []byte
	if params != nil {
		var err error
		body, err = encodeParams(params)
		if err != nil {
			return nil, err
		}
	}
	return c.executeRequest(ctx, strings.ToUpper(method), path, body, "", nil)
}

func encodeParams(params Params) ([]byte, error) {
	wire := make(map[string]any, len(params))
	for k, v := range params {
		if k == streamCallbackKey {
			continue
		}
		wire[k] = v
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return body, nil
}

// Streaming reports whether the body asks for a streamed response.
func (p Params) Streaming() bool {
	b, ok := p["stream"].(bool)
	return ok && b
}

// executeRequest builds and sends one request. contentType overrides the
// mode's Content-Type (multipart); a nil onData means a buffered response.
func (c *Client) executeRequest(ctx context.Context, method, path string, body []byte, contentType string, onData StreamFunc) (*Response, error) {
	url := c.URI(path)

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = c.Headers()
	if contentType != "" {
		req.Header.Set(headerContentType, contentType)
	}
	if onData != nil {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", contentTypeJSON)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	conn, err := c.connection()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := conn.Do(req)
	if err != nil {
		if debug.IsEnabled(ctx) {
			slog.Debug("request failed", "method", method, "url", url, "error", err)
		}
		if isTimeout(err) {
			return nil, &TimeoutError{Method: method, URL: url, Timeout: c.cfg.RequestTimeout, Err: err}
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if debug.IsEnabled(ctx) {
			slog.Debug("request complete", "method", method, "url", url, "status", resp.StatusCode, "duration", time.Since(start))
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       sanitizeErrorBody(string(respBody)),
			RequestID:  requestIDFromHeader(resp.Header),
		}
	}

	if onData != nil {
		chunks, err := readStream(resp, onData)
		if debug.IsEnabled(ctx) {
			slog.Debug("stream complete", "method", method, "url", url, "status", resp.StatusCode, "chunks", chunks, "duration", time.Since(start))
		}
		if err != nil {
			if isTimeout(err) {
				err = &TimeoutError{Method: method, URL: url, Timeout: c.cfg.RequestTimeout, Err: err}
			}
			var streamErr *StreamError
			if !errors.As(err, &streamErr) {
				err = &StreamError{Chunks: chunks, Err: err}
			}
			return nil, err
		}
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header}, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Method: method, URL: url, Timeout: c.cfg.RequestTimeout, Err: err}
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if debug.IsEnabled(ctx) {
		slog.Debug("request complete", "method", method, "url", url, "status", resp.StatusCode, "duration", time.Since(start))
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

// Response is a successful API response.
type Response struct {
	StatusCode int
	Header     http.Header
	// Body is nil after a streamed exchange; chunks went to the callback.
	Body []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("unexpected API response format (JSON decode failed): %w", err)
	}
	return nil
}

// JSON decodes the body into a generic value (object, array or scalar).
// Empty bodies decode to nil.
func (r *Response) JSON() (any, error) {
	var out any
	if err := r.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

const maxErrorBody = 64 * 1024

func requestIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	if id := header.Get("X-Request-Id"); id != "" {
		return id
	}
	return header.Get("Apim-Request-Id")
}

// sanitizeErrorBody extracts the server's error message without echoing
// the raw body, which may contain prompt text.
func sanitizeErrorBody(body string) string {
	var errResp struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &errResp); err != nil || len(errResp.Error) == 0 {
		return "API request failed (response body redacted)"
	}

	var detail struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	}
	if err := json.Unmarshal(errResp.Error, &detail); err == nil && detail.Message != "" {
		if detail.Type != "" {
			return fmt.Sprintf("%s (%s)", detail.Message, detail.Type)
		}
		return detail.Message
	}

	var msg string
	if err := json.Unmarshal(errResp.Error, &msg); err == nil && msg != "" {
		return msg
	}
	return "API request failed (response body redacted)"
}
