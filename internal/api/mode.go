package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// APIType is the deployment mode of a Client. It is fixed at construction.
type APIType int

const (
	// Direct talks to the vendor API with Bearer authentication and the
	// version as a path segment.
	Direct APIType = iota
	// Gateway talks to a managed proxy (Azure-style) with an api-key header
	// and the version as a query parameter.
	Gateway
)

const (
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	headerOrganization  = "OpenAI-Organization"
	headerAPIKey        = "api-key"

	contentTypeJSON = "application/json"
)

func (t APIType) String() string {
	switch t {
	case Direct:
		return "openai"
	case Gateway:
		return "azure"
	default:
		return fmt.Sprintf("APIType(%d)", int(t))
	}
}

// ParseAPIType maps a user-facing name to an APIType.
func ParseAPIType(s string) (APIType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "openai", "direct":
		return Direct, nil
	case "azure", "gateway":
		return Gateway, nil
	default:
		return Direct, &ConfigError{Field: "api_type", Reason: fmt.Sprintf("unknown value %q (use openai or azure)", s)}
	}
}

// mode bundles the URI and header builders for one APIType.
type mode struct {
	uri     func(cfg Config, path string) string
	headers func(cfg Config) http.Header
}

var modes = map[APIType]mode{
	Direct:  {uri: directURI, headers: directHeaders},
	Gateway: {uri: gatewayURI, headers: gatewayHeaders},
}

func directURI(cfg Config, path string) string {
	p, query := splitQuery(path)
	u := joinURL(cfg.URIBase, cfg.APIVersion, p)
	if query != "" {
		u += "?" + query
	}
	return u
}

func gatewayURI(cfg Config, path string) string {
	p, query := splitQuery(path)
	u := joinURL(cfg.URIBase, p)
	version := "api-version=" + url.QueryEscape(cfg.APIVersion)
	if query != "" {
		return u + "?" + query + "&" + version
	}
	return u + "?" + version
}

func directHeaders(cfg Config) http.Header {
	h := http.Header{}
	h.Set(headerContentType, contentTypeJSON)
	h.Set(headerAuthorization, "Bearer "+cfg.AccessToken)
	if cfg.OrganizationID != "" {
		h.Set(headerOrganization, cfg.OrganizationID)
	}
	return h
}

func gatewayHeaders(cfg Config) http.Header {
	h := http.Header{}
	h.Set(headerContentType, contentTypeJSON)
	h.Set(headerAPIKey, cfg.AccessToken)
	return h
}

// joinURL joins segments with exactly one slash at every join point. Empty
// segments are skipped; the scheme separator of the first segment is kept.
func joinURL(base string, segments ...string) string {
	out := strings.TrimRight(base, "/")
	for _, seg := range segments {
		seg = strings.Trim(seg, "/")
		if seg == "" {
			continue
		}
		out += "/" + seg
	}
	return out
}

func splitQuery(path string) (string, string) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, ""
}
