package labelsampler

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with sampler-specific context.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithSource adds the store source to the logger.
func (l *Logger) WithSource(source string) *Logger {
	return &Logger{
		Logger: l.Logger.With("source", source),
	}
}

// WithPolicy adds the assembly policy to the logger.
func (l *Logger) WithPolicy(p Policy) *Logger {
	return &Logger{
		Logger: l.Logger.With("policy", p.String()),
	}
}

// LogSetup logs the outcome of indexing a store.
func (l *Logger) LogSetup(ctx context.Context, records, numLabels int, emptyBuckets []int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "setup failed", "error", err)
		return
	}
	l.InfoContext(ctx, "label index built",
		"records", records,
		"labels", numLabels,
	)
	if len(emptyBuckets) > 0 {
		l.WarnContext(ctx, "labels without records",
			"count", len(emptyBuckets),
			"labels", emptyBuckets,
		)
	}
}

// LogOutputShape logs the shape of a data output.
func (l *Logger) LogOutputShape(ctx context.Context, top int, shape []int) {
	l.InfoContext(ctx, "output data size: "+shapeString(shape), "top", top)
}

// LogRestart logs a wraparound of the sequential walk.
func (l *Logger) LogRestart(ctx context.Context, epoch int) {
	l.InfoContext(ctx, "restarting data fetching from start", "epoch", epoch)
}

// LogForward logs a forward call.
func (l *Logger) LogForward(ctx context.Context, batchSize, sameClass int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "forward failed",
			"batch_size", batchSize,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "batch assembled",
		"batch_size", batchSize,
		"same_class", sameClass,
	)
}

// LogSampleFailure logs a failed companion draw.
func (l *Logger) LogSampleFailure(ctx context.Context, item, anchorLabel int, same bool, err error) {
	l.ErrorContext(ctx, "companion sampling failed",
		"item", item,
		"anchor_label", anchorLabel,
		"same_class", same,
		"error", err,
	)
}
