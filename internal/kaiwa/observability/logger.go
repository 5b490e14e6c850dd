// Package observability carries Kaiwa's logging and metrics.
//
// Logging goes through log/slog. Every line emitted while a webhook request
// is handled carries that request's trace_id.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/bdobrica/Kaiwa/common/redact"
	"github.com/bdobrica/Kaiwa/common/trace"
)

// Setup installs the default slog logger for level ("debug", "info", "warn",
// "error") and format ("json" or "text"), writing to stdout.
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// WithTrace returns the default logger annotated with the trace id of ctx.
func WithTrace(ctx context.Context) *slog.Logger {
	if id := trace.FromContext(ctx); id != "" {
		return slog.With("trace_id", id)
	}
	return slog.Default()
}

// Scrub strips bearer tokens and the given secrets from a log message.
func Scrub(msg string, secrets ...string) string {
	return redact.String(redact.Bearer(msg), secrets...)
}
