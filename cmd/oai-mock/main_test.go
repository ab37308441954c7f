package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{
		"--addr", ":0", "--token", "sk-local", "--model", "gpt-4", "--model", "whisper-1",
		"--chunk-delay", "20ms", "--api-version", "v2",
	})
	require.NoError(t, err)
	assert.Equal(t, ":0", o.addr)
	assert.Equal(t, "sk-local", o.token)
	assert.Equal(t, []string{"gpt-4", "whisper-1"}, o.models)
	assert.Equal(t, 20*time.Millisecond, o.chunkDelay)
	assert.Equal(t, "v2", o.apiVersion)

	_, err = parseFlags([]string{"extra"})
	assert.Error(t, err)
}

func TestNewServer_ServesBothShapes(t *testing.T) {
	srv := newServer(options{addr: ":0", token: "sk-local", apiVersion: "v1", models: []string{"gpt-4"}})
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	direct, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/models", nil)
	require.NoError(t, err)
	direct.Header.Set("Authorization", "Bearer sk-local")
	resp, err := http.DefaultClient.Do(direct)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	gateway, err := http.NewRequest(http.MethodGet, ts.URL+"/openai/deployments/gpt4/models?api-version=2023-05-15", nil)
	require.NoError(t, err)
	gateway.Header.Set("api-key", "sk-local")
	resp, err = http.DefaultClient.Do(gateway)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	unauth, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/models", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(unauth)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, []string{"--addr", "127.0.0.1:0"}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
