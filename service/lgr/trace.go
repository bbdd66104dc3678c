package lgr

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithRun attaches a trace id derived from the run id so every record of
// the run can be correlated.
func WithRun(ctx context.Context, runID uuid.UUID) context.Context {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID(runID),
		SpanID:     newSpanID(),
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(ctx, sc)
}

// WithSpan returns a child context that keeps the run's trace id and carries
// a fresh span id.
func WithSpan(ctx context.Context) context.Context {
	parent := trace.SpanContextFromContext(ctx)
	if !parent.IsValid() {
		return WithRun(ctx, uuid.New())
	}
	return trace.ContextWithSpanContext(ctx, parent.WithSpanID(newSpanID()))
}

func newSpanID() trace.SpanID {
	var sid trace.SpanID
	id := uuid.New()
	copy(sid[:], id[:8])
	return sid
}
