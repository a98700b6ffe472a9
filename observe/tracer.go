package observe

import (
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerOrNoop returns t, or a no-op tracer when t is nil. The pipeline
// traces every invocation through whichever tracer this returns.
func TracerOrNoop(t trace.Tracer) trace.Tracer {
	if t != nil {
		return t
	}
	return noop.NewTracerProvider().Tracer("apikit")
}
