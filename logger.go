package ggremote

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip building the record entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. The listener goroutines and the
// render loop log concurrently, so it is read and replaced atomically.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for ggremote and all its sub-packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used by ggremote:
//   - [slog.LevelDebug]: per-message routing, frame statistics, slow paths
//   - [slog.LevelInfo]: lifecycle events (listener started, peer connected)
//   - [slog.LevelWarn]: rejected diffs, missing fonts, unsupported resources
//   - [slog.LevelError]: transport failures
//
// Example:
//
//	ggremote.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by ggremote.
// Sub-packages call this on every use so that SetLogger takes effect
// without restarting the listener or the render loop.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
