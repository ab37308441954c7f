package update

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmonumbrella/openai-cli/internal/cache"
)

func releaseServer(t *testing.T, release Release, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(release)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "v1.0.0", canonical("1.0.0"))
	assert.Equal(t, "v1.0.0", canonical("v1.0.0"))
	assert.Equal(t, "v2.1.0", canonical(" 2.1.0 "))
}

func TestCheck_DevBuilds(t *testing.T) {
	c := &Checker{URL: "http://127.0.0.1:1"}
	for _, v := range []string{"", "dev"} {
		result, err := c.Check(context.Background(), v)
		require.NoError(t, err)
		assert.Nil(t, result)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		release   Release
		available bool
	}{
		{"major", "1.0.0", Release{TagName: "v3.0.0"}, true},
		{"minor", "1.0.0", Release{TagName: "v1.1.0"}, true},
		{"patch", "v1.0.0", Release{TagName: "v1.0.1"}, true},
		{"same", "1.0.0", Release{TagName: "v1.0.0"}, false},
		{"current newer", "2.0.0", Release{TagName: "v1.0.0"}, false},
		{"prerelease tag", "1.0.0", Release{TagName: "v2.0.0-beta.1"}, false},
		{"prerelease flag", "1.0.0", Release{TagName: "v2.0.0", Prerelease: true}, false},
		{"invalid current", "not-a-version", Release{TagName: "v2.0.0"}, false},
		{"invalid latest", "1.0.0", Release{TagName: "nightly"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compare(tt.current, &tt.release)
			assert.Equal(t, tt.available, got.UpdateAvailable)
			assert.Equal(t, tt.current, got.CurrentVersion)
		})
	}
}

func TestCheck_FetchesRelease(t *testing.T) {
	srv := releaseServer(t, Release{TagName: "v1.4.0", HTMLURL: "https://example.test/v1.4.0"}, nil)
	c := &Checker{URL: srv.URL, Client: srv.Client()}

	result, err := c.Check(context.Background(), "1.3.2")
	require.NoError(t, err)
	assert.Equal(t, &Result{
		CurrentVersion:  "1.3.2",
		LatestVersion:   "1.4.0",
		UpdateURL:       "https://example.test/v1.4.0",
		UpdateAvailable: true,
	}, result)
}

func TestCheck_UsesStore(t *testing.T) {
	t.Setenv("OAI_NO_CACHE", "")
	var hits atomic.Int32
	srv := releaseServer(t, Release{TagName: "v1.4.0"}, &hits)
	store := cache.NewFileStoreWithTTL(t.TempDir(), cache.Scope{Key: "release", BaseURL: srv.URL}, CacheTTL)
	c := &Checker{URL: srv.URL, Client: srv.Client(), Store: store}

	for range 3 {
		result, err := c.Check(context.Background(), "1.4.0")
		require.NoError(t, err)
		assert.False(t, result.UpdateAvailable)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestCheck_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)
	c := &Checker{URL: srv.URL}

	_, err := c.Check(context.Background(), "1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Nil(t, c.CheckQuietly(context.Background(), "1.0.0"))
}
