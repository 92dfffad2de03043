// internal/logging/logging.go
// Package logging sets up the per-run log directory and the structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout names run directories, e.g. 20240131-174502.
const TimestampLayout = "20060102-150405"

// Run is the log directory of one sweep run.
type Run struct {
	// Dir is <base>/<program>/<timestamp>.
	Dir string
	// Timestamp is the run start formatted with TimestampLayout.
	Timestamp string
	// Logger writes to Dir/full.log and the console writer.
	Logger *slog.Logger

	file *os.File
}

// Open creates the run directory and a logger writing to full.log and,
// when console is not nil, to console as well.
func Open(base, program string, start time.Time, level string, console io.Writer) (*Run, error) {
	ts := start.Format(TimestampLayout)
	dir := filepath.Join(base, program, ts)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "full.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}

	var w io.Writer = f
	if console != nil {
		w = io.MultiWriter(f, console)
	}
	logger := New(w, level)
	logger.Debug("logging to " + dir)
	return &Run{Dir: dir, Timestamp: ts, Logger: logger, file: f}, nil
}

// Close flushes and closes full.log.
func (r *Run) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// New returns a text logger for w at the named level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
