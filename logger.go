package ganesha

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with the field names used across the engine and simulation.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger over handler. A nil handler logs text to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger logs JSON to stderr at level and above.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger logs text to stderr at level and above.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

// WithRun tags every record with a run id.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{Logger: l.Logger.With("run", id)}
}

// LogSchema logs a schema lookup. Misses are logged at info level since they mean the format
// row changed.
func (l *Logger) LogSchema(hit bool, columns, bits int, invalid []int) {
	if hit {
		l.Debug("schema cache hit", "columns", columns)
		return
	}
	if len(invalid) > 0 {
		l.Warn("schema parsed with invalid columns",
			"columns", columns,
			"bits", bits,
			"invalid", invalid,
		)
		return
	}
	l.Info("schema parsed",
		"columns", columns,
		"bits", bits,
	)
}

// LogCall logs one engine operation.
func (l *Logger) LogCall(op string, rows int, elapsed time.Duration, err error) {
	if err != nil {
		l.Error(op+" failed",
			"rows", rows,
			"elapsed", elapsed,
			"error", err,
		)
		return
	}
	l.Debug(op+" completed",
		"rows", rows,
		"elapsed", elapsed,
	)
}

// LogGeneration logs the state after a simulation step.
func (l *Logger) LogGeneration(generation int, best float64, bestRow int) {
	l.Debug("generation completed",
		"generation", generation,
		"best", best,
		"row", bestRow,
	)
}
