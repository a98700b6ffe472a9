package observe

import "context"

// Field is a structured log attribute.
type Field struct {
	Key   string
	Value any
}

// F creates a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger is the structured logging adapter consumed by the pipeline.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Failures: logging is a side effect; implementations must not panic,
//     and callers treat sink failures as non-fatal.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, err error, fields ...Field)

	// Audit emits one audit record. Emitted exactly once per invocation
	// on both success and failure paths unless disabled per call.
	Audit(ctx context.Context, rec Record)
}

// NopLogger discards everything. It is the default when no logger is
// configured.
type NopLogger struct{}

func (NopLogger) Debug(context.Context, string, ...Field)        {}
func (NopLogger) Info(context.Context, string, ...Field)         {}
func (NopLogger) Warn(context.Context, string, ...Field)         {}
func (NopLogger) Error(context.Context, string, error, ...Field) {}
func (NopLogger) Audit(context.Context, Record)                  {}

var _ Logger = NopLogger{}
