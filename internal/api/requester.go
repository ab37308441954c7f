package api

import (
	"context"
	"net/http"
)

// URIResolver resolves resource paths and base headers for the client's
// deployment mode. It is pure: no network interaction.
type URIResolver interface {
	// URI returns the full request URI for a resource path.
	// Direct:  URI("/models") -> "https://api.openai.com/v1/models"
	// Gateway: URI("/models") -> "https://x.openai.azure.com/openai/models?api-version=2023-05-15"
	URI(path string) string

	// Headers returns the mode's base header set.
	Headers() http.Header
}

// Dispatcher is the request surface the resource services use.
//
// Services that only need a subset can take it as a dependency and tests
// can substitute a fake:
//
//	type fakeDispatcher struct{ paths []string }
//	func (f *fakeDispatcher) Get(_ context.Context, p string) (*api.Response, error) {
//		f.paths = append(f.paths, p)
//		return &api.Response{StatusCode: 200, Body: []byte(`{}`)}, nil
//	}
type Dispatcher interface {
	Get(ctx context.Context, path string) (*Response, error)
	JSONPost(ctx context.Context, path string, params Params, onData StreamFunc) (*Response, error)
	MultipartPost(ctx context.Context, path string, form *Form) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)
}
