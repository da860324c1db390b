package server

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polydev/polyd/internal/logger"
	"github.com/polydev/polyd/pkg/metrics"
)

// Config holds the HTTP endpoint configuration.
type Config struct {
	// Host is the address to bind to. Empty binds all interfaces.
	Host string

	// Port is the TCP port to listen on. 0 picks an ephemeral port;
	// Addr reports the effective one.
	Port int

	// ReadTimeout, WriteTimeout and IdleTimeout bound request handling.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// MaxHeaderBytes limits request header size. 0 uses the net/http
	// default.
	MaxHeaderBytes int
}

func (c *Config) applyDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

// HTTPEndpoint implements Endpoint over net/http.
//
// Open connection channels are tracked through http.Server.ConnState so
// CloseChannels can force-close them during shutdown. The channel map is
// mutated concurrently by the dispatcher as connections come and go;
// CloseChannels therefore iterates a snapshot, never the live map.
type HTTPEndpoint struct {
	config  Config
	server  *http.Server
	metrics metrics.ServerMetrics

	listenerMu sync.RWMutex
	listener   net.Listener

	stopOnce sync.Once

	channels  sync.Map // net.Conn -> struct{}
	openCount atomic.Int32
}

// NewHTTPEndpoint creates an endpoint serving handler. The metrics
// recorder may be nil for zero-overhead operation.
func NewHTTPEndpoint(config Config, handler http.Handler, m metrics.ServerMetrics) *HTTPEndpoint {
	config.applyDefaults()

	e := &HTTPEndpoint{config: config, metrics: m}
	e.server = &http.Server{
		Handler:        handler,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
		ConnState:      e.trackConnState,
	}
	return e
}

// SetHandler installs the HTTP handler. The router needs the lifecycle
// for its readiness probe and the lifecycle wraps this endpoint, so the
// handler is injected after construction. Must be called before Serve.
func (e *HTTPEndpoint) SetHandler(handler http.Handler) {
	e.server.Handler = handler
}

// Listen binds the TCP listener without serving.
func (e *HTTPEndpoint) Listen() error {
	addr := net.JoinHostPort(e.config.Host, strconv.Itoa(e.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	e.listenerMu.Lock()
	e.listener = listener
	e.listenerMu.Unlock()
	return nil
}

// Serve runs the accept/dispatch loop until the listener or server is
// closed. Call Listen first.
func (e *HTTPEndpoint) Serve() error {
	e.listenerMu.RLock()
	listener := e.listener
	e.listenerMu.RUnlock()

	if listener == nil {
		return fmt.Errorf("endpoint is not listening")
	}
	return e.server.Serve(listener)
}

// Addr reports the effective bound address. The configured host wins over
// the listener's wildcard form when one was set.
func (e *HTTPEndpoint) Addr() (string, int) {
	e.listenerMu.RLock()
	listener := e.listener
	e.listenerMu.RUnlock()

	if listener == nil {
		return e.config.Host, e.config.Port
	}

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		return e.config.Host, e.config.Port
	}
	port, _ := strconv.Atoi(portStr)
	if e.config.Host != "" {
		host = e.config.Host
	}
	return host, port
}

// StopDispatch closes the listener so no new connections are accepted or
// dispatched. Handlers already running are unaffected.
func (e *HTTPEndpoint) StopDispatch() error {
	var err error
	e.stopOnce.Do(func() {
		e.listenerMu.Lock()
		defer e.listenerMu.Unlock()

		if e.listener != nil {
			err = e.listener.Close()
		}
	})
	return err
}

// CloseChannels force-closes all currently open connection channels and
// returns the count closed.
//
// The live map is mutated concurrently by trackConnState, so the open
// channels are snapshotted first and the snapshot iterated.
func (e *HTTPEndpoint) CloseChannels() int {
	var snapshot []net.Conn
	e.channels.Range(func(key, _ any) bool {
		snapshot = append(snapshot, key.(net.Conn))
		return true
	})

	closed := 0
	for _, conn := range snapshot {
		if _, tracked := e.channels.LoadAndDelete(conn); !tracked {
			continue
		}
		e.openCount.Add(-1)
		if err := conn.Close(); err != nil {
			logger.Debug("error force-closing channel", "remote", conn.RemoteAddr(), "error", err)
			continue
		}
		closed++
	}

	if closed > 0 {
		logger.Debug("force-closed channels", "count", closed)
		if e.metrics != nil {
			e.metrics.RecordChannelsForceClosed(closed)
			e.metrics.SetOpenChannels(int(e.openCount.Load()))
		}
	}
	return closed
}

// OpenChannels returns the number of currently tracked channels.
func (e *HTTPEndpoint) OpenChannels() int {
	return int(e.openCount.Load())
}

// trackConnState maintains the channel map from the dispatcher's
// connection state callbacks.
func (e *HTTPEndpoint) trackConnState(conn net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		e.channels.Store(conn, struct{}{})
		open := e.openCount.Add(1)
		if e.metrics != nil {
			e.metrics.RecordChannelOpened()
			e.metrics.SetOpenChannels(int(open))
		}
	case http.StateClosed, http.StateHijacked:
		if _, tracked := e.channels.LoadAndDelete(conn); !tracked {
			// Already force-closed during shutdown.
			return
		}
		open := e.openCount.Add(-1)
		if e.metrics != nil {
			e.metrics.RecordChannelClosed()
			e.metrics.SetOpenChannels(int(open))
		}
	}
}
