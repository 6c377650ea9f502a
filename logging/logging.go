// Package logging builds the slog loggers used by dialogkit commands.
//
// Records always go to a text handler on the given writer (stderr for the
// CLI). When a log directory is configured they are also written as JSON to
// a dated file, YYYYMMDD.log, rotated by lumberjack.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// File rotation limits.
const (
	MaxFileSizeMB = 100
	MaxBackups    = 5
)

// ParseLevel converts debug, info, warn or error to a slog.Level.
// An empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// FileName returns the dated log file name for t.
func FileName(t time.Time) string {
	return t.Format("20060102") + ".log"
}

// Options configures New.
type Options struct {
	// Level is the minimum level for every sink.
	Level slog.Level

	// Console receives text records. Nil disables the console sink.
	Console io.Writer

	// Dir receives the dated JSON log file. Empty disables the file sink.
	Dir string

	// Now overrides the clock used to name the file.
	Now func() time.Time
}

// Logger is an slog.Logger that owns its file sink.
type Logger struct {
	*slog.Logger
	file *lumberjack.Logger
}

// New builds a Logger from opts.
func New(opts Options) *Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handlers []slog.Handler
	if opts.Console != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.Console, handlerOpts))
	}

	var file *lumberjack.Logger
	if opts.Dir != "" {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		file = &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName(now())),
			MaxSize:    MaxFileSizeMB,
			MaxBackups: MaxBackups,
		}
		handlers = append(handlers, slog.NewJSONHandler(file, handlerOpts))
	}

	var h slog.Handler
	switch len(handlers) {
	case 0:
		h = slog.DiscardHandler
	case 1:
		h = handlers[0]
	default:
		h = fanout(handlers)
	}
	return &Logger{Logger: slog.New(h), file: file}
}

// Path returns the log file path, or "" without a file sink.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Filename
}

// Close flushes and closes the file sink.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// fanout sends every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
