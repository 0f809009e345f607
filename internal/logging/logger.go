// Package logging provides structured logging shared by every component of the
// extraction engine, the queue workers, and the CLI.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps *slog.Logger with a component name, so every record a
// subsystem emits carries which subsystem produced it as a structured field.
type Logger struct {
	inner     *slog.Logger
	component string
}

// New builds a Logger for component, reading KREUZBERG_LOG_LEVEL and
// KREUZBERG_LOG_FORMAT ("json" or "text", default "text") from the environment.
func New(component string) *Logger {
	level := parseLevel(os.Getenv("KREUZBERG_LOG_LEVEL"))
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(os.Getenv("KREUZBERG_LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return &Logger{
		inner:     slog.New(handler).With("component", component),
		component: component,
	}
}

// Default returns a Logger over slog.Default(), for call sites that don't need
// their own handler configuration (tests, short-lived CLI subcommands).
func Default(component string) *Logger {
	return &Logger{inner: slog.Default().With("component", component), component: component}
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a derived Logger with additional key/value pairs attached to every
// subsequent record, the way the orchestrator tags a logger with request_id/mime_type
// for the duration of one extraction.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{inner: l.inner.With(keysAndValues...), component: l.component}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debug(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Info(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Error(msg, keysAndValues...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.inner.DebugContext(ctx, msg, keysAndValues...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.inner.InfoContext(ctx, msg, keysAndValues...)
}

// Slog exposes the underlying *slog.Logger for components (e.g. the asynq server)
// that want to pass a standard slog.Logger into third-party constructors.
func (l *Logger) Slog() *slog.Logger {
	return l.inner
}

// OCRDebugEnabled reports whether KREUZBERG_OCR_DEBUG is set to any value.
// When enabled, the OCR engine emits a structured diagnostic line on stderr
// for each pipeline stage it passes through.
func OCRDebugEnabled() bool {
	return os.Getenv("KREUZBERG_OCR_DEBUG") != ""
}
