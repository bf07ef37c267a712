package frvm

import (
	"context"
	"log/slog"
	"os"

	"github.com/vdd9/frvm/model"
)

// Logger wraps slog.Logger with frvm-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithEntity adds an entity field to the logger (useful for tagging operations).
func (l *Logger) WithEntity(id model.EntityID) *Logger {
	return &Logger{
		Logger: l.Logger.With("entity", string(id)),
	}
}

// WithPartition adds a partition field to the logger.
func (l *Logger) WithPartition(p model.Partition) *Logger {
	return &Logger{
		Logger: l.Logger.With("partition", string(p)),
	}
}

// LogEvaluate logs a query evaluation.
func (l *Logger) LogEvaluate(ctx context.Context, p model.Partition, input string, total int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "evaluate failed",
			"partition", string(p),
			"query", input,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "evaluate completed",
			"partition", string(p),
			"query", input,
			"total", total,
		)
	}
}

// LogSet logs a tri-state category assignment.
func (l *Logger) LogSet(ctx context.Context, id model.EntityID, key string, prev, next model.State, err error) {
	if err != nil {
		l.ErrorContext(ctx, "set category failed",
			"entity", string(id),
			"category", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "set category completed",
			"entity", string(id),
			"category", key,
			"prev", prev.String(),
			"next", next.String(),
		)
	}
}

// LogScan logs a library rescan.
func (l *Logger) LogScan(ctx context.Context, entities, added int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "library scan failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "library scan completed",
			"entities", entities,
			"added", added,
		)
	}
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, filename string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"filename", filename,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"filename", filename,
		)
	}
}
