package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requiredVars = []string{"DISCORD_BOT_TOKEN", "DISCORD_GUILD_ID", "DISCORD_CHANGED_NAME_ROLE_ID"}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range append(requiredVars,
		"NICKBOT_START_MESSAGE", "NICKBOT_LOG_LEVEL", "NICKBOT_AUDIT_DB",
		"NICKBOT_AUDIT_DISABLED", "NICKBOT_SHUTDOWN_TIMEOUT", "NICKBOT_LOG_FILE",
		"NICKBOT_AUDIT_RETENTION", "NICKBOT_AUDIT_PRUNE_INTERVAL", "NICKBOT_SLOW_INTERACTION_THRESHOLD",
	) {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func writeEnvFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "DISCORD_BOT_TOKEN=abc\nDISCORD_GUILD_ID=111\nDISCORD_CHANGED_NAME_ROLE_ID=222\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Token)
	assert.Equal(t, "111", cfg.GuildID)
	assert.Equal(t, "222", cfg.RoleID)
	assert.Equal(t, DefaultStartMessage, cfg.StartMessage)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, slog.LevelWarn, cfg.DiscordgoLogLevel)
	assert.Equal(t, DefaultAuditDB, cfg.AuditDB)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.True(t, cfg.AuditEnabled())
	assert.Zero(t, cfg.AuditRetention)
	assert.Equal(t, 24*time.Hour, cfg.AuditPruneInterval)
	assert.Equal(t, 2*time.Second, cfg.SlowInteractionThreshold)
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "DISCORD_BOT_TOKEN=file\nDISCORD_GUILD_ID=111\nDISCORD_CHANGED_NAME_ROLE_ID=222\n")
	t.Setenv("DISCORD_BOT_TOKEN", "process")
	t.Setenv("NICKBOT_LOG_LEVEL", "debug")
	t.Setenv("NICKBOT_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("NICKBOT_AUDIT_DISABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "process", cfg.Token)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.AuditEnabled())
}

func TestLoadMissingRequired(t *testing.T) {
	for _, missing := range requiredVars {
		t.Run(missing, func(t *testing.T) {
			clearEnv(t)
			body := ""
			for _, name := range requiredVars {
				if name != missing {
					body += name + "=123\n"
				}
			}

			_, err := Load(writeEnvFile(t, body))
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoadRejectsNonNumericIDs(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "DISCORD_BOT_TOKEN=abc\nDISCORD_GUILD_ID=guild\nDISCORD_CHANGED_NAME_ROLE_ID=222\n")

	_, err := Load(path)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "DISCORD_GUILD_ID")
}

func TestLoadTrimsIDs(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "DISCORD_BOT_TOKEN=abc\nDISCORD_GUILD_ID=\" 100\"\nDISCORD_CHANGED_NAME_ROLE_ID=\"200 \"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "100", cfg.GuildID)
	assert.Equal(t, "200", cfg.RoleID)
}

func TestValidateRejectsPaddedIDs(t *testing.T) {
	cfg := Config{GuildID: " 100", RoleID: "200", StartMessage: "go", ShutdownTimeout: time.Second}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_GUILD_ID")
}

func TestLogValueRedactsToken(t *testing.T) {
	cfg := Config{Token: "super-secret", GuildID: "1"}
	assert.NotContains(t, cfg.LogValue().String(), "super-secret")
}

func TestLoadRejectsNegativeRetention(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "DISCORD_BOT_TOKEN=abc\nDISCORD_GUILD_ID=111\nDISCORD_CHANGED_NAME_ROLE_ID=222\n")
	t.Setenv("NICKBOT_AUDIT_RETENTION", "-1h")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NICKBOT_AUDIT_RETENTION")
}
