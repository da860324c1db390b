package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

func startEndpoint(t *testing.T) (*Lifecycle, *HTTPEndpoint, string, chan error) {
	t.Helper()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	ep := NewHTTPEndpoint(Config{Host: "127.0.0.1", Port: 0}, handler, nil)
	lc := NewLifecycleWithNotice(ep, &bytes.Buffer{}, false)

	if err := lc.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}

	host, port := ep.Addr()
	if port == 0 {
		t.Fatal("Addr() did not report the effective port")
	}

	serveDone := make(chan error, 1)
	go func() { serveDone <- lc.Serve() }()

	return lc, ep, fmt.Sprintf("http://%s:%d", host, port), serveDone
}

func waitServe(t *testing.T, serveDone chan error) error {
	t.Helper()
	select {
	case err := <-serveDone:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("serve loop did not return")
		return nil
	}
}

func TestHTTPEndpointServesRequests(t *testing.T) {
	lc, _, baseURL, serveDone := startEndpoint(t)

	resp, err := http.Get(baseURL + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	if err := lc.Shutdown(); err != nil {
		t.Fatalf("Shutdown() returned error: %v", err)
	}
	if err := waitServe(t, serveDone); err != nil {
		t.Errorf("Serve() after shutdown returned error: %v", err)
	}
}

// Shutdown from a separate goroutine while the serve loop is blocked must
// make Serve return cleanly, force-closing any idle keep-alive channels.
func TestHTTPEndpointShutdownClosesIdleChannels(t *testing.T) {
	lc, ep, baseURL, serveDone := startEndpoint(t)

	// A keep-alive client leaves its channel open after the response.
	client := &http.Client{}
	resp, err := client.Get(baseURL + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	// The channel is tracked once the dispatcher has seen it.
	deadline := time.Now().Add(2 * time.Second)
	for ep.OpenChannels() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ep.OpenChannels() == 0 {
		t.Fatal("keep-alive channel was not tracked")
	}

	if err := lc.Shutdown(); err != nil {
		t.Fatalf("Shutdown() returned error: %v", err)
	}
	if err := waitServe(t, serveDone); err != nil {
		t.Errorf("Serve() after shutdown returned error: %v", err)
	}
	if lc.State() != StateStopped {
		t.Errorf("final state = %v, want stopped", lc.State())
	}
	if got := ep.OpenChannels(); got != 0 {
		t.Errorf("open channels after shutdown = %d, want 0", got)
	}
}

func TestHTTPEndpointServeWithoutListen(t *testing.T) {
	ep := NewHTTPEndpoint(Config{Host: "127.0.0.1"}, http.NotFoundHandler(), nil)
	if err := ep.Serve(); err == nil {
		t.Fatal("Serve() without Listen() succeeded")
	}
}

func TestHTTPEndpointStopDispatchIdempotent(t *testing.T) {
	ep := NewHTTPEndpoint(Config{Host: "127.0.0.1", Port: 0}, http.NotFoundHandler(), nil)
	if err := ep.Listen(); err != nil {
		t.Fatalf("Listen() returned error: %v", err)
	}
	if err := ep.StopDispatch(); err != nil {
		t.Fatalf("StopDispatch() returned error: %v", err)
	}
	if err := ep.StopDispatch(); err != nil {
		t.Fatalf("second StopDispatch() returned error: %v", err)
	}
}
