//go:build integration

package daemon_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polydev/polyd/pkg/api"
	"github.com/polydev/polyd/pkg/completer"
	"github.com/polydev/polyd/pkg/server"
)

// startDaemon wires the full daemon stack (registry, router, endpoint,
// lifecycle) on an ephemeral port, the way `polyd serve` does.
func startDaemon(t *testing.T) (*server.Lifecycle, string, chan error) {
	t.Helper()

	endpoint := server.NewHTTPEndpoint(server.Config{
		Host: "127.0.0.1",
		Port: 0,
	}, nil, nil)

	lifecycle := server.NewLifecycleWithNotice(endpoint, io.Discard, false)

	router := api.NewRouter(api.RouterConfig{
		Lifecycle: lifecycle,
		Registry:  completer.Default(),
		Version:   "integration-test",
	})
	endpoint.SetHandler(router)

	require.NoError(t, lifecycle.Start())

	host, port := endpoint.Addr()
	baseURL := fmt.Sprintf("http://%s:%d", host, port)

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- lifecycle.Serve()
	}()

	return lifecycle, baseURL, serveDone
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if out != nil {
		require.NoError(t, json.Unmarshal(body, out))
	}
	return resp.StatusCode
}

func TestDaemonEndToEnd(t *testing.T) {
	lifecycle, baseURL, serveDone := startDaemon(t)

	t.Run("liveness", func(t *testing.T) {
		var body map[string]any
		status := getJSON(t, baseURL+"/health", &body)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("readiness while running", func(t *testing.T) {
		status := getJSON(t, baseURL+"/health/ready", nil)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("completers listing", func(t *testing.T) {
		var body map[string]any
		status := getJSON(t, baseURL+"/completers", &body)
		assert.Equal(t, http.StatusOK, status)

		data, ok := body["data"].(map[string]any)
		require.True(t, ok, "completers response has a data object")
		listing, ok := data["completers"].([]any)
		require.True(t, ok, "data contains a completers array")
		assert.Len(t, listing, completer.Default().Len())

		first, ok := listing[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "cfamily", first["name"])
	})

	t.Run("graceful shutdown", func(t *testing.T) {
		require.NoError(t, lifecycle.Shutdown())

		select {
		case err := <-serveDone:
			assert.NoError(t, err, "expected interrupt to be swallowed after shutdown")
		case <-time.After(5 * time.Second):
			t.Fatal("serve loop did not return after shutdown")
		}

		assert.Equal(t, server.StateStopped, lifecycle.State())
	})

	t.Run("shutdown is idempotent", func(t *testing.T) {
		require.NoError(t, lifecycle.Shutdown())
		assert.Equal(t, server.StateStopped, lifecycle.State())
	})
}

func TestDaemonKeepAliveForceClose(t *testing.T) {
	lifecycle, baseURL, serveDone := startDaemon(t)

	// Keep-alive client holds its connection channel open
	client := &http.Client{}
	resp, err := client.Get(baseURL + "/health")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	require.NoError(t, lifecycle.Shutdown())

	select {
	case err := <-serveDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve loop did not return after shutdown")
	}
}
