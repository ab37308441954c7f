package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/salmonumbrella/openai-cli/internal/api"
	"github.com/salmonumbrella/openai-cli/internal/config"
	"github.com/salmonumbrella/openai-cli/internal/debug"
	"github.com/salmonumbrella/openai-cli/internal/observability"
)

// runMetrics collects request metrics for --metrics-file. Reset per Execute.
var runMetrics *observability.Metrics

type clientFactory struct {
	profile   string
	timeout   time.Duration
	userAgent string
	proxy     string
	debug     bool
	metrics   bool
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		profile:   flags.Profile,
		timeout:   flags.Timeout,
		userAgent: fmt.Sprintf("openai-cli/%s", version),
		proxy:     flags.Proxy,
		debug:     flags.Debug,
		metrics:   flags.MetricsFile != "",
	}
}

// resolve assembles the client defaults from the profile and environment.
func (f *clientFactory) resolve() (config.Resolved, error) {
	return config.Resolve(f.profile)
}

func (f *clientFactory) client() (*api.Client, error) {
	res, err := f.resolve()
	if err != nil {
		return nil, err
	}
	opts, err := f.options(res.Config)
	if err != nil {
		return nil, err
	}
	client, err := api.New(res.Config, opts...)
	if err != nil {
		// A keyring that could not be read explains a missing credential
		// better than the bare config error.
		if api.IsConfigError(err) && res.ProfileErr != nil && !errors.Is(res.ProfileErr, config.ErrNotConfigured) {
			return nil, fmt.Errorf("%w (profile %q unavailable: %v)", err, res.Profile, res.ProfileErr)
		}
		return nil, err
	}
	return client, nil
}

// options turns the connection flags into api options. Empty flags leave
// the resolved defaults in place.
func (f *clientFactory) options(defaults api.Config) ([]api.Option, error) {
	opts := []api.Option{
		api.WithAccessToken(flags.AccessToken),
		api.WithOrganization(flags.Organization),
		api.WithURIBase(flags.URIBase),
		api.WithAPIVersion(flags.APIVersion),
		api.WithUserAgent(f.userAgent),
	}
	if f.timeout > 0 {
		opts = append(opts, api.WithRequestTimeout(f.timeout))
	}
	apiType := defaults.APIType
	if flags.APIType != "" {
		t, err := api.ParseAPIType(flags.APIType)
		if err != nil {
			return nil, err
		}
		apiType = t
		opts = append(opts, api.WithAPIType(t))
	}
	extend, err := f.extension(apiType)
	if err != nil {
		return nil, err
	}
	if extend != nil {
		opts = append(opts, api.WithConnectionExtension(extend))
	}
	return opts, nil
}

// extension chains the proxy, metrics and debug logging onto the connection
// when it is first built. Debug logging is outermost so it sees every
// attempt the metrics transport records.
func (f *clientFactory) extension(apiType api.APIType) (api.ConnectionExtension, error) {
	var proxyURL *url.URL
	if f.proxy != "" {
		u, err := url.Parse(f.proxy)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid --proxy %q: must be an absolute URL", f.proxy)
		}
		proxyURL = u
	}
	var metrics *observability.Metrics
	if f.metrics {
		if runMetrics == nil {
			runMetrics = observability.New(apiType.String())
		}
		metrics = runMetrics
	}
	if proxyURL == nil && metrics == nil && !f.debug {
		return nil, nil
	}

	return func(conn *http.Client) {
		if proxyURL != nil {
			if t, ok := conn.Transport.(*http.Transport); ok {
				t.Proxy = http.ProxyURL(proxyURL)
			}
		}
		if metrics != nil {
			metrics.Extend(conn)
		}
		if f.debug {
			conn.Transport = debug.NewTransport(conn.Transport)
		}
	}, nil
}
