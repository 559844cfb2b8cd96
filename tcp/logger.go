package tcp

import (
	"context"
	"log/slog"

	"github.com/arl/tcpstack/internal"
)

// logger is embedded by [ControlBlock], [Conn] and [Listener] so each gets
// the same debug/trace/info/error logging helpers, no-opping when no *slog.Logger
// has been configured via SetLogger/Configure.
type logger struct {
	log *slog.Logger
}

func (lg *logger) logenabled(lvl slog.Level) bool {
	return internal.HeapAllocDebugging || (lg.log != nil && lg.log.Handler().Enabled(context.Background(), lvl))
}

func (lg *logger) logattrs(lvl slog.Level, msg string, attrs ...slog.Attr) {
	internal.LogAttrs(lg.log, lvl, msg, attrs...)
}

func (lg *logger) debug(msg string, attrs ...slog.Attr) {
	lg.logattrs(slog.LevelDebug, msg, attrs...)
}

func (lg *logger) trace(msg string, attrs ...slog.Attr) {
	lg.logattrs(internal.LevelTrace, msg, attrs...)
}

func (lg *logger) logerr(msg string, attrs ...slog.Attr) {
	lg.logattrs(slog.LevelError, msg, attrs...)
}

func (lg *logger) info(msg string, attrs ...slog.Attr) {
	lg.logattrs(slog.LevelInfo, msg, attrs...)
}
