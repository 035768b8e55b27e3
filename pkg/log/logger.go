package log

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelCritical is used for failures that stop the process.
const LevelCritical = slog.LevelError + 4

const componentKey = "component"

// Options configures the process-wide logger.
type Options struct {
	Level slog.Leveler

	// Console receives human-readable output. Defaults to os.Stderr.
	Console io.Writer
	NoColor bool

	// File enables a rotated JSON log file when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup builds the logger, installs it as slog's default and returns a
// closer for the rotated file (a no-op when no file is configured).
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := []slog.Handler{
		tint.NewHandler(console, &tint.Options{
			Level:       level,
			TimeFormat:  time.TimeOnly,
			NoColor:     opts.NoColor,
			ReplaceAttr: replaceLevelName,
		}),
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		handlers = append(handlers, slog.NewJSONHandler(rotated, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replaceLevelName,
		}))
		closer = rotated
	}

	logger := slog.New(newFanout(handlers...))
	slog.SetDefault(logger)
	return logger, closer, nil
}

// Critical logs at LevelCritical on the default logger.
func Critical(msg string, args ...any) {
	slog.Default().Log(context.Background(), LevelCritical, msg, args...)
}

// For returns the default logger tagged with a component name.
func For(component string) *slog.Logger {
	return slog.Default().With(componentKey, component)
}

func ApplicationLogger() *slog.Logger { return For("application") }
func DiscordLogger() *slog.Logger     { return For("discord") }
func DatabaseLogger() *slog.Logger    { return For("database") }

func replaceLevelName(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= LevelCritical {
		return slog.String(slog.LevelKey, "CRITICAL")
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fanout sends every record to each handler that accepts its level.
type fanout struct {
	handlers []slog.Handler
}

func newFanout(handlers ...slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return &fanout{handlers: handlers}
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
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

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanout{handlers: next}
}
