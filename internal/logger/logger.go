package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Logger is a thin printf-style wrapper over slog. A nil *Logger discards.
type Logger struct {
	sl *slog.Logger
}

// New returns a logger writing to stderr, colored when stderr is a terminal.
func New() *Logger {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return &Logger{sl: slog.New(newTerminalHandler(os.Stderr))}
	}
	return NewText(os.Stderr)
}

// NewText returns a logger writing logfmt-style lines to w.
func NewText(w io.Writer) *Logger {
	return &Logger{sl: slog.New(newTextHandler(w))}
}

func newTextHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: Level.lvl})
}

func newTerminalHandler(w io.Writer) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		NoColor:    runtime.GOOS == "windows",
		Level:      Level.lvl,
		TimeFormat: "15:04:05",
	})
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	if l.isNil() {
		return l
	}
	return &Logger{sl: l.sl.With(args...)}
}

func (l *Logger) Error(a ...any)   { l.log(slog.LevelError, fmt.Sprint(a...)) }
func (l *Logger) Warning(a ...any) { l.log(slog.LevelWarn, fmt.Sprint(a...)) }
func (l *Logger) Info(a ...any)    { l.log(slog.LevelInfo, fmt.Sprint(a...)) }
func (l *Logger) Debug(a ...any)   { l.log(slog.LevelDebug, fmt.Sprint(a...)) }

func (l *Logger) Errorf(format string, a ...any)   { l.log(slog.LevelError, fmt.Sprintf(format, a...)) }
func (l *Logger) Warningf(format string, a ...any) { l.log(slog.LevelWarn, fmt.Sprintf(format, a...)) }
func (l *Logger) Infof(format string, a ...any)    { l.log(slog.LevelInfo, fmt.Sprintf(format, a...)) }
func (l *Logger) Debugf(format string, a ...any)   { l.log(slog.LevelDebug, fmt.Sprintf(format, a...)) }

func (l *Logger) log(lvl slog.Level, msg string) {
	if l.isNil() || !Level.Enabled(lvl) {
		return
	}
	l.sl.Log(context.Background(), lvl, msg)
}

func (l *Logger) isNil() bool { return l == nil || l.sl == nil }
