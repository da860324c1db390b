package server

import (
	"bytes"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

// fakeEndpoint scripts the Endpoint surface. Serve blocks until an error
// is pushed or StopDispatch runs.
type fakeEndpoint struct {
	host string
	port int

	listenErr error
	serveErrs chan error

	stopped       atomic.Bool
	closeCalls    atomic.Int32
	closeReturns  int
	stopDispatchE error
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{
		host:         "127.0.0.1",
		port:         8642,
		serveErrs:    make(chan error, 1),
		closeReturns: 3,
	}
}

func (f *fakeEndpoint) Listen() error { return f.listenErr }

func (f *fakeEndpoint) Serve() error { return <-f.serveErrs }

func (f *fakeEndpoint) Addr() (string, int) { return f.host, f.port }

func (f *fakeEndpoint) StopDispatch() error {
	f.stopped.Store(true)
	// Closing the listener interrupts the dispatch loop.
	f.serveErrs <- net.ErrClosed
	return f.stopDispatchE
}

func (f *fakeEndpoint) CloseChannels() int {
	f.closeCalls.Add(1)
	return f.closeReturns
}

func TestStartTransitionsToRunning(t *testing.T) {
	ep := newFakeEndpoint()
	lc := NewLifecycleWithNotice(ep, &bytes.Buffer{}, false)

	if lc.State() != StateIdle {
		t.Fatalf("initial state = %v, want idle", lc.State())
	}
	if err := lc.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	if lc.State() != StateRunning {
		t.Errorf("state after Start = %v, want running", lc.State())
	}
}

func TestStartTwiceFails(t *testing.T) {
	ep := newFakeEndpoint()
	lc := NewLifecycleWithNotice(ep, &bytes.Buffer{}, false)

	if err := lc.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	if err := lc.Start(); err == nil {
		t.Error("second Start() succeeded, want error")
	}
}

func TestStartBindFailure(t *testing.T) {
	ep := newFakeEndpoint()
	ep.listenErr = errors.New("address in use")
	lc := NewLifecycleWithNotice(ep, &bytes.Buffer{}, false)

	if err := lc.Start(); err == nil {
		t.Fatal("Start() succeeded despite bind failure")
	}
	if lc.State() != StateStopped {
		t.Errorf("state after failed Start = %v, want stopped", lc.State())
	}
}

// External tooling parses this exact line for readiness detection.
func TestStartEmitsNoticeWhenInteractive(t *testing.T) {
	ep := newFakeEndpoint()
	var notice bytes.Buffer
	lc := NewLifecycleWithNotice(ep, &notice, true)

	if err := lc.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	if got, want := notice.String(), "serving on http://127.0.0.1:8642\n"; got != want {
		t.Errorf("notice = %q, want %q", got, want)
	}
}

func TestStartSuppressesNoticeWhenNotInteractive(t *testing.T) {
	ep := newFakeEndpoint()
	var notice bytes.Buffer
	lc := NewLifecycleWithNotice(ep, &notice, false)

	if err := lc.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	if notice.Len() != 0 {
		t.Errorf("notice emitted without interactive console: %q", notice.String())
	}
}

// An interrupt raised by an explicit shutdown request is expected and must
// be swallowed; Serve returns cleanly and the final state is Stopped.
func TestShutdownWhileServing(t *testing.T) {
	ep := newFakeEndpoint()
	lc := NewLifecycleWithNotice(ep, &bytes.Buffer{}, false)

	if err := lc.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}

	serveDone := make(chan error, 1)
	go func() { serveDone <- lc.Serve() }()

	if err := lc.Shutdown(); err != nil {
		t.Fatalf("Shutdown() returned error: %v", err)
	}

	select {
	case err := <-serveDone:
		if err != nil {
			t.Errorf("Serve() after shutdown returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after Shutdown()")
	}

	if lc.State() != StateStopped {
		t.Errorf("final state = %v, want stopped", lc.State())
	}
	if !ep.stopped.Load() {
		t.Error("Shutdown() did not stop dispatch")
	}
	if ep.closeCalls.Load() != 1 {
		t.Errorf("CloseChannels called %d times, want 1", ep.closeCalls.Load())
	}
}

// The same interrupt without a shutdown request is a genuine fault.
func TestSpuriousInterruptPropagates(t *testing.T) {
	for _, interrupt := range []error{http.ErrServerClosed, net.ErrClosed} {
		ep := newFakeEndpoint()
		lc := NewLifecycleWithNotice(ep, &bytes.Buffer{}, false)

		if err := lc.Start(); err != nil {
			t.Fatalf("Start() returned error: %v", err)
		}

		ep.serveErrs <- interrupt
		if err := lc.Serve(); err == nil {
			t.Errorf("Serve() swallowed spurious interrupt %v while running", interrupt)
		}
	}
}

func TestNonInterruptErrorAlwaysPropagates(t *testing.T) {
	ep := newFakeEndpoint()
	lc := NewLifecycleWithNotice(ep, &bytes.Buffer{}, false)

	if err := lc.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	if err := lc.Shutdown(); err != nil {
		t.Fatalf("Shutdown() returned error: %v", err)
	}

	// Drain the interrupt injected by StopDispatch, then push a real fault.
	<-ep.serveErrs
	fault := errors.New("dispatcher wedged")
	ep.serveErrs <- fault

	if err := lc.Serve(); !errors.Is(err, fault) {
		t.Errorf("Serve() error = %v, want %v", err, fault)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	ep := newFakeEndpoint()
	lc := NewLifecycleWithNotice(ep, &bytes.Buffer{}, false)

	if err := lc.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	if err := lc.Shutdown(); err != nil {
		t.Fatalf("first Shutdown() returned error: %v", err)
	}
	if err := lc.Shutdown(); err != nil {
		t.Fatalf("second Shutdown() returned error: %v", err)
	}
	if ep.closeCalls.Load() != 1 {
		t.Errorf("CloseChannels called %d times across two Shutdowns, want 1", ep.closeCalls.Load())
	}
	if lc.State() != StateStopped {
		t.Errorf("final state = %v, want stopped", lc.State())
	}
}

func TestShutdownSurfacesStopDispatchError(t *testing.T) {
	ep := newFakeEndpoint()
	ep.stopDispatchE = errors.New("listener already gone")
	lc := NewLifecycleWithNotice(ep, &bytes.Buffer{}, false)

	if err := lc.Start(); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	if err := lc.Shutdown(); err == nil {
		t.Error("Shutdown() swallowed StopDispatch error")
	}
	// Channels are still closed and the state still terminal.
	if ep.closeCalls.Load() != 1 {
		t.Errorf("CloseChannels called %d times, want 1", ep.closeCalls.Load())
	}
	if lc.State() != StateStopped {
		t.Errorf("final state = %v, want stopped", lc.State())
	}
}
