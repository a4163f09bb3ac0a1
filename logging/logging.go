// Package logging builds the slog logger: a console handler for humans plus
// a rotating JSON file that keeps every record of a run.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup.
type Options struct {
	Level   string    // debug, info, warn or error
	Format  string    // console format: text or json
	File    string    // rotating log file; empty or "-" disables it
	Console io.Writer // nil disables console output
	NoColor bool
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// ErrNoSink is returned by Setup when both the console and the file are
// disabled.
var ErrNoSink = errors.New("logging needs a console or a log file")

// FileEnabled reports whether path names a log file rather than disabling it.
func FileEnabled(path string) bool {
	return path != "" && path != "-"
}

// Setup returns the logger and a closer for the file sink.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if opts.Console == nil && !FileEnabled(opts.File) {
		return nil, nil, ErrNoSink
	}

	var handlers []slog.Handler
	if opts.Console != nil {
		handlers = append(handlers, consoleHandler(opts, level))
	}

	var closer io.Closer = nopCloser{}
	if FileEnabled(opts.File) {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
		}
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
		closer = file
	}

	return slog.New(NewFanout(handlers...)), closer, nil
}

func consoleHandler(opts Options, level slog.Level) slog.Handler {
	if opts.Format == "json" {
		return slog.NewJSONHandler(opts.Console, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(opts.Console, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Fanout sends every record to each handler that accepts its level.
type Fanout struct {
	handlers []slog.Handler
}

func NewFanout(handlers ...slog.Handler) *Fanout {
	return &Fanout{handlers: handlers}
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &Fanout{handlers: handlers}
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &Fanout{handlers: handlers}
}
