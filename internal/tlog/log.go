// Package tlog centralizes the module's structured logging, following the
// teacher's own use of golang.org/x/exp/slog (see log/value.libevm.go) for
// extending go-ethereum's logger. tinylthread is a library, not a daemon, so
// logging here is strictly diagnostic: destruction of mutex and port backing
// objects, and a non-joined thread being finalized, never while a shared
// mutex is held.
package tlog

import (
	"os"
	"sync/atomic"

	"golang.org/x/exp/slog"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))
}

// SetLogger replaces the package-wide logger. Embedders that already run a
// slog-based logging pipeline should call this once at startup to route
// tinylthread's diagnostics through it.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

// L returns the current logger.
func L() *slog.Logger {
	return logger.Load()
}

// Debug logs a low-volume lifecycle event (a mutex or port backing object
// destroyed).
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Warn logs a condition a user likely cares about: a non-joined thread being
// collected.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}
