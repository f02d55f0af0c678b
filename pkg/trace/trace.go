package trace

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// SpanContext is the wire form of a span context carried inside activity
// messages, so consumers can link their work to the request that caused it.
type SpanContext struct {
	TraceID    [16]byte `json:"trace_id"`
	SpanID     [8]byte  `json:"span_id"`
	TraceFlags byte     `json:"trace_flags"`
	TraceState string   `json:"trace_state"`
	Remote     bool     `json:"remote"`
}

func ParseSpanContext(sc SpanContext) (trace.SpanContext, error) {
	traceState, err := trace.ParseTraceState(sc.TraceState)
	if err != nil {
		return trace.SpanContext{}, err
	}
	config := trace.SpanContextConfig{
		TraceID:    sc.TraceID,
		SpanID:     sc.SpanID,
		TraceFlags: trace.TraceFlags(sc.TraceFlags),
		TraceState: traceState,
		Remote:     sc.Remote,
	}
	return trace.NewSpanContext(config), nil
}

func BuildSpanContext(sc trace.SpanContext) SpanContext {
	return SpanContext{
		TraceID:    sc.TraceID(),
		SpanID:     sc.SpanID(),
		TraceFlags: byte(sc.TraceFlags()),
		TraceState: sc.TraceState().String(),
		Remote:     sc.IsRemote(),
	}
}

// FromContext captures the span context active in ctx.
func FromContext(ctx context.Context) SpanContext {
	return BuildSpanContext(trace.SpanContextFromContext(ctx))
}

// ContextWithRemote returns ctx carrying sc as a remote parent span. An
// invalid or unparsable sc leaves ctx unchanged.
func ContextWithRemote(ctx context.Context, sc SpanContext) context.Context {
	parsed, err := ParseSpanContext(sc)
	if err != nil || !parsed.IsValid() {
		return ctx
	}
	return trace.ContextWithRemoteSpanContext(ctx, parsed)
}
