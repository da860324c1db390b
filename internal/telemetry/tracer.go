package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for polyd operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// HTTP attributes
	// ========================================================================
	AttrHTTPMethod    = "http.method"
	AttrHTTPPath      = "http.path"
	AttrHTTPStatus    = "http.status_code"
	AttrHTTPRequestID = "http.request_id"

	// ========================================================================
	// Process attributes
	// ========================================================================
	AttrProcCommand  = "proc.command"
	AttrProcArgv     = "proc.argv"
	AttrProcDir      = "proc.dir"
	AttrProcExitCode = "proc.exit_code"
)

// SpanHTTPRequest is the root span for HTTP request processing.
// Subprocess spans are named proc.<command> by StartProcSpan.
const SpanHTTPRequest = "http.request"

// HTTPMethod returns an attribute for HTTP method
func HTTPMethod(method string) attribute.KeyValue {
	return attribute.String(AttrHTTPMethod, method)
}

// HTTPPath returns an attribute for request path
func HTTPPath(path string) attribute.KeyValue {
	return attribute.String(AttrHTTPPath, path)
}

// HTTPStatus returns an attribute for HTTP status code
func HTTPStatus(code int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, code)
}

// HTTPRequestID returns an attribute for the per-request identifier
func HTTPRequestID(id string) attribute.KeyValue {
	return attribute.String(AttrHTTPRequestID, id)
}

// ProcCommand returns an attribute for an executable name
func ProcCommand(name string) attribute.KeyValue {
	return attribute.String(AttrProcCommand, name)
}

// ProcArgv returns an attribute for a full command line
func ProcArgv(argv []string) attribute.KeyValue {
	return attribute.String(AttrProcArgv, strings.Join(argv, " "))
}

// ProcDir returns an attribute for a working directory
func ProcDir(dir string) attribute.KeyValue {
	return attribute.String(AttrProcDir, dir)
}

// ProcExitCode returns an attribute for a subprocess exit code
func ProcExitCode(code int) attribute.KeyValue {
	return attribute.Int(AttrProcExitCode, code)
}

// StartHTTPSpan starts a span for an HTTP request.
// This is a convenience function that sets common attributes.
func StartHTTPSpan(ctx context.Context, method, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		HTTPMethod(method),
		HTTPPath(path),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanHTTPRequest, trace.WithAttributes(allAttrs...))
}

// StartProcSpan starts a span for a subprocess invocation.
// The span name is proc.<command>.
func StartProcSpan(ctx context.Context, command string, argv []string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		ProcCommand(command),
		ProcArgv(argv),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "proc."+command, trace.WithAttributes(allAttrs...))
}
