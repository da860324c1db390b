// Package server wraps an embedded HTTP endpoint with an explicit
// lifecycle: bind, serve, and a cooperative shutdown that stops dispatch
// and force-closes open channels.
//
// The lifecycle owns the endpoint by composition behind a narrow
// interface, so the interrupt-classification logic is independent of any
// concrete server implementation.
package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/polydev/polyd/internal/logger"
)

// State is the lifecycle state, observable while Serve blocks elsewhere.
type State int32

const (
	// StateIdle is the state before Start.
	StateIdle State = iota

	// StateRunning means the endpoint is bound and serving.
	StateRunning

	// StateShutdownRequested means Shutdown has begun; the serve loop may
	// still be draining.
	StateShutdownRequested

	// StateStopped is terminal: dispatch is stopped and all channels
	// closed. There is no transition out of Stopped.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateShutdownRequested:
		return "shutdown-requested"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Endpoint is the narrow surface of the embedded server the lifecycle
// drives. Implementations must make Serve return, eventually, once
// StopDispatch and CloseChannels have both run.
type Endpoint interface {
	// Listen binds the endpoint without serving.
	Listen() error

	// Serve runs the accept/dispatch loop, blocking until it exits.
	Serve() error

	// Addr reports the effective bound address after Listen.
	Addr() (host string, port int)

	// StopDispatch stops accepting and dispatching new work. In-flight
	// work is unaffected.
	StopDispatch() error

	// CloseChannels force-closes the currently open connection channels
	// from a snapshot and reports how many were closed. Channels opened
	// mid-iteration are untouched.
	CloseChannels() int
}

// Lifecycle adds start/stop semantics to an Endpoint.
//
// Serve runs on its own goroutine of the caller's choosing; Shutdown is
// designed to be called from a different goroutine (a signal handler or a
// supervising controller) while Serve is blocked.
type Lifecycle struct {
	endpoint Endpoint
	state    atomic.Int32

	shutdownOnce sync.Once

	// notice receives the readiness line; interactive gates it.
	notice      io.Writer
	interactive func() bool
}

// NewLifecycle wraps the endpoint. The readiness notice goes to stdout
// when stdin is an interactive terminal.
func NewLifecycle(endpoint Endpoint) *Lifecycle {
	return &Lifecycle{
		endpoint:    endpoint,
		notice:      os.Stdout,
		interactive: stdinIsInteractive,
	}
}

// NewLifecycleWithNotice wraps the endpoint with an injected notice writer
// and interactivity decision. Used by tests and embedding processes that
// manage their own console.
func NewLifecycleWithNotice(endpoint Endpoint, notice io.Writer, interactive bool) *Lifecycle {
	return &Lifecycle{
		endpoint:    endpoint,
		notice:      notice,
		interactive: func() bool { return interactive },
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

// Start binds the endpoint and transitions Idle to Running.
//
// On success, when an interactive console is attached, it emits a line
// matching exactly "serving on http://<host>:<port>". External tooling
// parses this line for readiness detection; do not change the format.
func (l *Lifecycle) Start() error {
	if !l.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("cannot start lifecycle in state %s", l.State())
	}

	if err := l.endpoint.Listen(); err != nil {
		l.state.Store(int32(StateStopped))
		return fmt.Errorf("failed to bind endpoint: %w", err)
	}

	host, port := l.endpoint.Addr()
	logger.Info("server listening", "host", host, "port", port)

	if l.interactive() && l.notice != nil {
		fmt.Fprintf(l.notice, "serving on http://%s:%d\n", host, port)
	}
	return nil
}

// Serve runs the endpoint's dispatch loop, blocking until it exits.
//
// The loop's exit error is classified by lifecycle state: an
// interrupt-class error after an explicit shutdown request is expected and
// swallowed; the same error while still Running is a genuine fault and
// propagates. Non-interrupt errors always propagate.
func (l *Lifecycle) Serve() error {
	err := l.endpoint.Serve()
	if err == nil {
		return nil
	}

	if isInterrupt(err) {
		if l.State() != StateRunning {
			logger.Debug("serve loop interrupted by shutdown", "error", err)
			return nil
		}
		return fmt.Errorf("serve loop interrupted without shutdown request: %w", err)
	}
	return err
}

// Shutdown stops the lifecycle: it marks shutdown as requested, stops the
// endpoint's dispatch, force-closes every open channel from a snapshot,
// and transitions to Stopped.
//
// Shutdown is idempotent and safe to call concurrently with Serve. There
// is deliberately no timeout: closure is unconditional and assumed to
// complete promptly.
func (l *Lifecycle) Shutdown() error {
	var err error
	l.shutdownOnce.Do(func() {
		l.state.Store(int32(StateShutdownRequested))
		logger.Debug("shutdown requested")

		if stopErr := l.endpoint.StopDispatch(); stopErr != nil {
			err = fmt.Errorf("failed to stop dispatch: %w", stopErr)
		}

		closed := l.endpoint.CloseChannels()
		logger.Info("server stopped", "channels_closed", closed)

		l.state.Store(int32(StateStopped))
	})
	return err
}

// isInterrupt reports whether the serve loop exited because its listener
// or server was torn down underneath it.
func isInterrupt(err error) bool {
	return errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed)
}

// stdinIsInteractive reports whether stdin is attached to a terminal.
func stdinIsInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
