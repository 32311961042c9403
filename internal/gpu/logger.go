//go:build !nogpu

package gpu

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record; it backs the logger until proctex.SetLogger
// hands one over.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var gpuLogger atomic.Pointer[slog.Logger]

func init() {
	gpuLogger.Store(slog.New(discard{}))
}

func slogger() *slog.Logger { return gpuLogger.Load() }

// setLogger installs l for device and pipeline events, tagged
// component=gpu. nil silences the package again.
func setLogger(l *slog.Logger) {
	if l == nil {
		gpuLogger.Store(slog.New(discard{}))
		return
	}
	gpuLogger.Store(l.With("component", "gpu"))
}
