package ringscan

import (
	"log/slog"

	"github.com/dendrolab/ringscan/internal/logging"
)

// SetLogger configures the logger for ringscan and all its sub-packages.
// By default, ringscan produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by ringscan:
//   - [slog.LevelDebug]: internal diagnostics (pass schedules, tile waits, sub-segments)
//   - [slog.LevelInfo]: lifecycle events (pipeline ready, capture complete)
//   - [slog.LevelWarn]: non-fatal issues (CPU fallback, stale resumptions, failed tiles)
//   - [slog.LevelError]: shader configuration failures
//
// Example:
//
//	ringscan.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by ringscan.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
