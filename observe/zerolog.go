package observe

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerolog creates a logger writing JSON lines to w at the given level
// ("debug", "info", "warn", "error"). Unknown levels default to info.
func NewZerolog(w io.Writer, level string) *ZerologLogger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return &ZerologLogger{
		log: zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
	}
}

// WrapZerolog adapts an existing zerolog.Logger.
func WrapZerolog(log zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: log}
}

func (l *ZerologLogger) Debug(_ context.Context, msg string, fields ...Field) {
	l.emit(l.log.Debug(), msg, fields)
}

func (l *ZerologLogger) Info(_ context.Context, msg string, fields ...Field) {
	l.emit(l.log.Info(), msg, fields)
}

func (l *ZerologLogger) Warn(_ context.Context, msg string, fields ...Field) {
	l.emit(l.log.Warn(), msg, fields)
}

func (l *ZerologLogger) Error(_ context.Context, msg string, err error, fields ...Field) {
	l.emit(l.log.Error().Err(err), msg, fields)
}

// Audit logs the record as a tagged info event so audit lines can be
// filtered out of the regular log stream.
func (l *ZerologLogger) Audit(_ context.Context, rec Record) {
	l.log.Info().
		Str("event", "audit").
		Str("request_id", rec.RequestID).
		Str("principal", rec.Principal).
		Str("action", rec.Action).
		Str("resource", rec.Resource).
		Str("resource_id", rec.ResourceID).
		Str("ip", rec.IP).
		Str("user_agent", rec.UserAgent).
		Time("timestamp", rec.Timestamp).
		Dur("duration", rec.Duration).
		Int("status", rec.Status).
		Bool("success", rec.Success).
		Str("error_code", rec.ErrorCode).
		Msg("audit")
}

func (l *ZerologLogger) emit(ev *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

var _ Logger = (*ZerologLogger)(nil)
