package errutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// Small helpers shared by every package that talks to Discord:
// - InitializeGlobalErrorHandler(logger *slog.Logger) error
// - HandleDiscordError(operation string, fn func() error) error
// - HandleConfigError(operation, path string, fn func() error) error
// - IsForbidden / StatusCode for classifying REST failures

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// InitializeGlobalErrorHandler sets the logger used by the error helpers.
// It is safe to call multiple times; the last non-nil logger wins.
func InitializeGlobalErrorHandler(l *slog.Logger) error {
	if l == nil {
		return fmt.Errorf("nil logger provided")
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// HandleDiscordError executes fn and logs any error as a Discord failure.
// The error is returned unmodified so callers can still classify it.
// Forbidden responses are logged at warn level since they are expected
// when the bot lacks permissions.
func HandleDiscordError(operation string, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("nil function provided")
	}

	err := fn()
	if err == nil {
		return nil
	}

	level := slog.LevelError
	if IsForbidden(err) {
		level = slog.LevelWarn
	}
	current().Log(context.Background(), level, "Discord operation failed",
		"operation", operation,
		"status", StatusCode(err),
		tint.Err(err),
	)
	return err
}

// HandleConfigError executes fn and logs any error as a configuration
// failure, returning it wrapped with the operation and path.
func HandleConfigError(operation, path string, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("nil function provided")
	}

	err := fn()
	if err == nil {
		return nil
	}

	current().Error("Config operation failed", "operation", operation, "path", path, tint.Err(err))
	return fmt.Errorf("config %s %s: %w", operation, path, err)
}

// StatusCode returns the HTTP status of a Discord REST error, or 0.
func StatusCode(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	return 0
}

// IsForbidden reports whether Discord rejected the request for lack of
// permission (missing permission, role hierarchy, or guild owner target).
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}
