package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_OnlyCredentialUsesDefaults(t *testing.T) {
	client, err := New(DefaultConfig(), WithAccessToken("sk-test"))
	require.NoError(t, err)

	cfg := client.Config()
	assert.Equal(t, "sk-test", cfg.AccessToken)
	assert.Equal(t, DefaultURIBase, cfg.URIBase)
	assert.Equal(t, DefaultAPIVersion, cfg.APIVersion)
	assert.Equal(t, DefaultRequestTimeout, client.RequestTimeout())
	assert.Equal(t, Direct, client.APIType())
}

func TestNew_OptionsOverrideDefaults(t *testing.T) {
	defaults := DefaultConfig()
	defaults.AccessToken = "from-defaults"
	defaults.OrganizationID = "org-defaults"

	client, err := New(defaults,
		WithAccessToken("from-option"),
		WithURIBase("https://example.openai.azure.com/openai"),
		WithAPIVersion("2023-05-15"),
		WithRequestTimeout(7*time.Second),
		WithAPIType(Gateway),
	)
	require.NoError(t, err)

	cfg := client.Config()
	assert.Equal(t, "from-option", cfg.AccessToken)
	assert.Equal(t, "org-defaults", cfg.OrganizationID)
	assert.Equal(t, "https://example.openai.azure.com/openai", cfg.URIBase)
	assert.Equal(t, "2023-05-15", cfg.APIVersion)
	assert.Equal(t, 7*time.Second, client.RequestTimeout())
	assert.Equal(t, Gateway, client.APIType())
}

func TestNew_EmptyOptionsFallBack(t *testing.T) {
	defaults := DefaultConfig()
	defaults.AccessToken = "sk-default"

	client, err := New(defaults, WithAccessToken(""), WithURIBase(""), WithRequestTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, "sk-default", client.Config().AccessToken)
	assert.Equal(t, DefaultURIBase, client.Config().URIBase)
	assert.Equal(t, DefaultRequestTimeout, client.RequestTimeout())
}

func TestNew_DefaultsAreNotShared(t *testing.T) {
	defaults := DefaultConfig()
	a, err := New(defaults, WithAccessToken("a"), WithURIBase("https://a.example.com"))
	require.NoError(t, err)
	b, err := New(defaults, WithAccessToken("b"))
	require.NoError(t, err)

	assert.Equal(t, "https://a.example.com", a.Config().URIBase)
	assert.Equal(t, DefaultURIBase, b.Config().URIBase)
	assert.Equal(t, DefaultURIBase, defaults.URIBase)
}

func TestNew_ConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		defaults Config
		opts     []Option
		field    string
	}{
		{
			name:     "missing credential",
			defaults: DefaultConfig(),
			field:    "access_token",
		},
		{
			name:     "blank credential",
			defaults: DefaultConfig(),
			opts:     []Option{WithAccessToken("   ")},
			field:    "access_token",
		},
		{
			name:     "missing base address",
			defaults: Config{APIVersion: "v1"},
			opts:     []Option{WithAccessToken("sk")},
			field:    "uri_base",
		},
		{
			name:     "gateway without version",
			defaults: Config{URIBase: "https://gw.example.com"},
			opts:     []Option{WithAccessToken("sk"), WithAPIType(Gateway)},
			field:    "api_version",
		},
		{
			name:     "unknown mode",
			defaults: DefaultConfig(),
			opts:     []Option{WithAccessToken("sk"), WithAPIType(APIType(9))},
			field:    "api_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.defaults, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, client)
			assert.True(t, IsConfigError(err))

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestNew_ConnectionExtensionOption(t *testing.T) {
	called := false
	client, err := New(DefaultConfig(), WithAccessToken("sk"), WithConnectionExtension(func(*http.Client) { called = true }))
	require.NoError(t, err)
	assert.NotNil(t, client.Config().Extend)
	assert.False(t, called, "extension must not run before the first request")
	assert.False(t, client.Built())
}

func TestParseAPIType(t *testing.T) {
	tests := []struct {
		in      string
		want    APIType
		wantErr bool
	}{
		{"", Direct, false},
		{"openai", Direct, false},
		{"Direct", Direct, false},
		{"azure", Gateway, false},
		{" AZURE ", Gateway, false},
		{"gateway", Gateway, false},
		{"bedrock", Direct, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAPIType(tt.in)
			if tt.wantErr {
				assert.True(t, IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAPIType_String(t *testing.T) {
	assert.Equal(t, "openai", Direct.String())
	assert.Equal(t, "azure", Gateway.String())
	assert.Equal(t, "APIType(7)", APIType(7).String())
}
