package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var discordgoLevels = map[int]slog.Level{
	discordgo.LogError:         slog.LevelError,
	discordgo.LogWarning:       slog.LevelWarn,
	discordgo.LogInformational: slog.LevelInfo,
	discordgo.LogDebug:         slog.LevelDebug,
}

// DiscordgoLogger adapts slog to discordgo's package-level Logger hook.
func DiscordgoLogger(logger *slog.Logger) func(msgL, caller int, format string, a ...any) {
	logger = logger.With(componentKey, "discordgo")
	return func(msgL, _ int, format string, a ...any) {
		level, ok := discordgoLevels[msgL]
		if !ok {
			level = slog.LevelInfo
		}
		logger.Log(context.Background(), level, strings.ReplaceAll(fmt.Sprintf(format, a...), "\n", ""))
	}
}

// DiscordgoLevel maps a slog level to discordgo's numeric log level.
func DiscordgoLevel(level slog.Level) int {
	switch {
	case level <= slog.LevelDebug:
		return discordgo.LogDebug
	case level <= slog.LevelInfo:
		return discordgo.LogInformational
	case level <= slog.LevelWarn:
		return discordgo.LogWarning
	default:
		return discordgo.LogError
	}
}
