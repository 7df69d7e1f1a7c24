// Package log is the station's printf-style front end to log/slog. The
// console and TUI presenters share the process with it, so the output can be
// redirected to a file while a full-screen UI owns the terminal.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// LogLevel is an alias for slog's Level
type LogLevel = slog.Level

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelError = slog.LevelError
)

// sink is one immutable logger setup. Swapping it is safe while the scan
// source, the controller and the presenter goroutines keep logging.
type sink struct {
	level   LogLevel
	out     io.Writer
	handler slog.Handler
}

var active atomic.Pointer[sink]

func init() {
	install(LevelInfo, os.Stderr)
}

func install(level LogLevel, out io.Writer) {
	active.Store(&sink{
		level: level,
		out:   out,
		handler: slog.NewTextHandler(out, &slog.HandlerOptions{
			AddSource:   true,
			Level:       level,
			ReplaceAttr: rewriteAttr,
		}),
	})
}

// rewriteAttr names the trace level and trims source paths to the module.
func rewriteAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok {
			if idx := strings.LastIndex(src.File, "qrscan/"); idx > -1 {
				src.File = src.File[idx:]
			}
		}
	}
	return a
}

// SetLevel keeps the current output and changes the minimum level.
func SetLevel(level LogLevel) {
	install(level, active.Load().out)
}

// Level reports the minimum level currently logged.
func Level() LogLevel {
	return active.Load().level
}

// SetOutput keeps the current level and writes to w from now on.
func SetOutput(w io.Writer) {
	install(active.Load().level, w)
}

// ToFile appends all further output to the file at path. The returned
// function restores the previous writer and closes the file.
func ToFile(path string) (func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	prev := active.Load().out
	SetOutput(f)
	return func() error {
		SetOutput(prev)
		return f.Close()
	}, nil
}

// emit captures the caller of the exported helper as the record source.
func emit(level LogLevel, format string, v ...any) {
	h := active.Load().handler
	if !h.Enabled(context.Background(), level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, fmt.Sprintf(format, v...), pcs[0])
	_ = h.Handle(context.Background(), r)
}

func Trace(format string, v ...any) { emit(LevelTrace, format, v...) }
func Debug(format string, v ...any) { emit(LevelDebug, format, v...) }
func Info(format string, v ...any)  { emit(LevelInfo, format, v...) }
func Error(format string, v ...any) { emit(LevelError, format, v...) }

// Fatalf logs at the Error level and exits with status 1.
func Fatalf(format string, v ...any) {
	emit(LevelError, format, v...)
	os.Exit(1)
}
