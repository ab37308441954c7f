package api

import (
	"net/http"
	"strings"
	"time"
)

const (
	DefaultURIBase        = "https://api.openai.com/"
	DefaultAPIVersion     = "v1"
	DefaultRequestTimeout = 120 * time.Second
)

// ConnectionExtension is called once with the freshly built connection,
// before the first request goes out. Use it to wrap the transport (logging,
// metrics) or to set a proxy.
type ConnectionExtension func(conn *http.Client)

// Config holds the resolved settings of a Client.
type Config struct {
	AccessToken    string
	OrganizationID string
	URIBase        string
	APIVersion     string
	RequestTimeout time.Duration
	APIType        APIType
	UserAgent      string
	Extend         ConnectionExtension
}

// DefaultConfig returns the package defaults. Callers may tweak the returned
// value and hand it to New as the base every client falls back to.
func DefaultConfig() Config {
	return Config{
		URIBase:        DefaultURIBase,
		APIVersion:     DefaultAPIVersion,
		RequestTimeout: DefaultRequestTimeout,
		APIType:        Direct,
	}
}

// Option overrides a single Config field at construction time.
type Option func(*overrides)

type overrides struct {
	accessToken    *string
	organizationID *string
	uriBase        *string
	apiVersion     *string
	requestTimeout *time.Duration
	apiType        *APIType
	userAgent      *string
	extend         ConnectionExtension
}

// WithAccessToken sets the credential sent with every request.
func WithAccessToken(token string) Option {
	return func(o *overrides) { o.accessToken = &token }
}

// WithOrganization sets the organization header value (direct mode only).
func WithOrganization(id string) Option {
	return func(o *overrides) { o.organizationID = &id }
}

// WithURIBase sets the base address requests are resolved against.
func WithURIBase(base string) Option {
	return func(o *overrides) { o.uriBase = &base }
}

// WithAPIVersion sets the API version (path segment in direct mode, query
// parameter in gateway mode).
func WithAPIVersion(version string) Option {
	return func(o *overrides) { o.apiVersion = &version }
}

// WithRequestTimeout sets the per-request timeout of the connection.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *overrides) { o.requestTimeout = &timeout }
}

// WithAPIType selects the deployment mode.
func WithAPIType(t APIType) Option {
	return func(o *overrides) { o.apiType = &t }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *overrides) { o.userAgent = &ua }
}

// WithConnectionExtension registers a function run once on the built connection.
func WithConnectionExtension(fn ConnectionExtension) Option {
	return func(o *overrides) { o.extend = fn }
}

// resolveConfig merges explicit options over defaults. Empty string options
// count as "not given" so flag plumbing can pass through unset values.
func resolveConfig(defaults Config, opts ...Option) (Config, error) {
	var o overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	cfg := defaults
	if o.accessToken != nil && *o.accessToken != "" {
		cfg.AccessToken = *o.accessToken
	}
	if o.organizationID != nil && *o.organizationID != "" {
		cfg.OrganizationID = *o.organizationID
	}
	if o.uriBase != nil && *o.uriBase != "" {
		cfg.URIBase = *o.uriBase
	}
	if o.apiVersion != nil && *o.apiVersion != "" {
		cfg.APIVersion = *o.apiVersion
	}
	if o.requestTimeout != nil && *o.requestTimeout > 0 {
		cfg.RequestTimeout = *o.requestTimeout
	}
	if o.apiType != nil {
		cfg.APIType = *o.apiType
	}
	if o.userAgent != nil && *o.userAgent != "" {
		cfg.UserAgent = *o.userAgent
	}
	if o.extend != nil {
		cfg.Extend = o.extend
	}

	cfg.AccessToken = strings.TrimSpace(cfg.AccessToken)
	cfg.URIBase = strings.TrimSpace(cfg.URIBase)
	cfg.APIVersion = strings.Trim(strings.TrimSpace(cfg.APIVersion), "/")
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	if cfg.AccessToken == "" {
		return Config{}, &ConfigError{Field: "access_token", Reason: "no credential configured"}
	}
	if cfg.URIBase == "" {
		return Config{}, &ConfigError{Field: "uri_base", Reason: "no base address configured"}
	}
	if _, ok := modes[cfg.APIType]; !ok {
		return Config{}, &ConfigError{Field: "api_type", Reason: "unknown deployment mode"}
	}
	if cfg.APIType == Gateway && cfg.APIVersion == "" {
		return Config{}, &ConfigError{Field: "api_version", Reason: "gateway mode requires an API version"}
	}
	return cfg, nil
}
