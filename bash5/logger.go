package bash5

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with bas.h5-specific helpers so that field names
// stay consistent across readers and parts.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards everything. It is the default.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithFile tags every record with the file it concerns.
func (l *Logger) WithFile(path string) *Logger {
	return &Logger{Logger: l.Logger.With("file", path)}
}

// LogOpen logs a successfully opened reader.
func (l *Logger) LogOpen(parts int, multipart bool, sequencing int) {
	l.Info("opened bas.h5",
		"parts", parts,
		"multipart", multipart,
		"sequencing_zmws", sequencing,
	)
}

// LogPartOpen logs the indexes built for one part.
func (l *Logger) LogPartOpen(movie string, holes, sequencing, regionRows int, raw, ccs bool) {
	l.Debug("indexed part",
		"movie", movie,
		"holes", holes,
		"sequencing_zmws", sequencing,
		"region_rows", regionRows,
		"raw_basecalls", raw,
		"consensus_basecalls", ccs,
	)
}

// LogMalformedHQ reports holes whose region table does not carry exactly one
// HQ row. Their HQ region is treated as empty.
func (l *Logger) LogMalformedHQ(holes int, example int32, hqRows int) {
	if holes == 0 {
		return
	}
	l.Warn("region table has holes without exactly one HQ region; using empty HQ regions",
		"holes", holes,
		"example_hole", example,
		"example_hq_rows", hqRows,
	)
}

// LogClose logs a close, with the error if any.
func (l *Logger) LogClose(err error) {
	if err != nil {
		l.Error("close failed", "error", err)
		return
	}
	l.Debug("closed")
}
