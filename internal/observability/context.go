package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// DetachTraceContext returns a background context that still carries the
// span of ctx, so work started for a caller keeps its trace after the
// caller's context is cancelled.
func DetachTraceContext(ctx context.Context) context.Context {
	return DetachTraceContextFrom(ctx, context.Background())
}

// DetachTraceContextFrom copies the span of src onto base. Cancellation
// then follows base (for example the server's shutdown context) rather
// than the request.
func DetachTraceContextFrom(src, base context.Context) context.Context {
	sc := trace.SpanContextFromContext(src)
	if !sc.IsValid() {
		return base
	}
	return trace.ContextWithRemoteSpanContext(base, sc)
}
