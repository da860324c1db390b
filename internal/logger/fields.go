package logger

import (
	"log/slog"
	"strings"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// HTTP Request Handling
	// ========================================================================
	KeyRequestID = "request_id" // Per-request identifier
	KeyMethod    = "method"     // HTTP method
	KeyPath      = "path"       // Request path
	KeyStatus    = "status"     // HTTP status code
	KeyClientIP  = "client_ip"  // Client IP address

	// ========================================================================
	// Completer Selection
	// ========================================================================
	KeyCompleter  = "completer"  // Completer name (cfamily, python, ...)
	KeyCompleters = "completers" // Resolved completer set

	// ========================================================================
	// Process Orchestration
	// ========================================================================
	KeyCommand  = "command"   // Executable name
	KeyArgv     = "argv"      // Full command line
	KeyDir      = "dir"       // Working directory
	KeyExitCode = "exit_code" // Subprocess exit code

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyComponent  = "component"   // Subsystem emitting the log line
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyPort       = "port"        // Listen port
	KeyHost       = "host"        // Listen host
	KeyState      = "state"       // Lifecycle state
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// RequestID returns a slog.Attr for the per-request identifier
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Method returns a slog.Attr for the HTTP method
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Path returns a slog.Attr for the request path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Status returns a slog.Attr for the HTTP status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// ClientIP returns a slog.Attr for the client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// Completer returns a slog.Attr for a single completer name
func Completer(name string) slog.Attr {
	return slog.String(KeyCompleter, name)
}

// Completers returns a slog.Attr for a resolved completer set
func Completers(names []string) slog.Attr {
	return slog.String(KeyCompleters, strings.Join(names, ","))
}

// Command returns a slog.Attr for an executable name
func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

// Argv returns a slog.Attr for a full command line
func Argv(argv []string) slog.Attr {
	return slog.String(KeyArgv, strings.Join(argv, " "))
}

// Dir returns a slog.Attr for a working directory
func Dir(d string) slog.Attr {
	return slog.String(KeyDir, d)
}

// ExitCode returns a slog.Attr for a subprocess exit code
func ExitCode(code int) slog.Attr {
	return slog.Int(KeyExitCode, code)
}

// DurationMs returns a slog.Attr for operation duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error (nil-safe)
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component returns a slog.Attr for the subsystem emitting the log line
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Port returns a slog.Attr for a listen port
func Port(p int) slog.Attr {
	return slog.Int(KeyPort, p)
}

// Host returns a slog.Attr for a listen host
func Host(h string) slog.Attr {
	return slog.String(KeyHost, h)
}

// LifecycleState returns a slog.Attr for a server lifecycle state
func LifecycleState(s string) slog.Attr {
	return slog.String(KeyState, s)
}
