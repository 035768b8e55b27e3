// Package config loads the bot's immutable runtime configuration from the
// environment and optional .env files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/small-frappuccino/nicknamebot/pkg/util"
)

const (
	DefaultStartMessage    = "Please Change your Nickname to continue:"
	DefaultAuditDB         = "nicknamebot.sqlite3"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is built once at startup and passed by pointer into every
// component; nothing mutates it after Load returns.
type Config struct {
	Token   string `env:"DISCORD_BOT_TOKEN,required,notEmpty"`
	GuildID string `env:"DISCORD_GUILD_ID,required,notEmpty"`
	RoleID  string `env:"DISCORD_CHANGED_NAME_ROLE_ID,required,notEmpty"`

	StartMessage string `env:"NICKBOT_START_MESSAGE" envDefault:"Please Change your Nickname to continue:"`

	LogLevel          slog.Level `env:"NICKBOT_LOG_LEVEL" envDefault:"info"`
	DiscordgoLogLevel slog.Level `env:"NICKBOT_DISCORDGO_LOG_LEVEL" envDefault:"warn"`
	LogFile           string     `env:"NICKBOT_LOG_FILE"`
	LogMaxSizeMB      int        `env:"NICKBOT_LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups     int        `env:"NICKBOT_LOG_MAX_BACKUPS" envDefault:"3"`

	AuditDB       string `env:"NICKBOT_AUDIT_DB" envDefault:"nicknamebot.sqlite3"`
	AuditDisabled bool   `env:"NICKBOT_AUDIT_DISABLED"`

	// AuditRetention of zero keeps audit rows forever.
	AuditRetention     time.Duration `env:"NICKBOT_AUDIT_RETENTION" envDefault:"0s"`
	AuditPruneInterval time.Duration `env:"NICKBOT_AUDIT_PRUNE_INTERVAL" envDefault:"24h"`

	SlowInteractionThreshold time.Duration `env:"NICKBOT_SLOW_INTERACTION_THRESHOLD" envDefault:"2s"`

	ShutdownTimeout time.Duration `env:"NICKBOT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// ConfigurationError means the process cannot start. It is never
// recoverable.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads .env files (see util.LoadEnvFiles), parses the environment
// and validates the result. All failures are *ConfigurationError.
func Load(envFile string) (*Config, error) {
	if _, err := util.LoadEnvFiles(envFile); err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	cfg.GuildID = strings.TrimSpace(cfg.GuildID)
	cfg.RoleID = strings.TrimSpace(cfg.RoleID)
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	return cfg, nil
}

// Validate checks the values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	for name, id := range map[string]string{
		"DISCORD_GUILD_ID":             c.GuildID,
		"DISCORD_CHANGED_NAME_ROLE_ID": c.RoleID,
	} {
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			errs = append(errs, fmt.Errorf("%s must be a numeric Discord ID, got %q", name, id))
		}
	}
	if strings.TrimSpace(c.StartMessage) == "" {
		errs = append(errs, errors.New("NICKBOT_START_MESSAGE must not be blank"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("NICKBOT_SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.AuditRetention < 0 {
		errs = append(errs, errors.New("NICKBOT_AUDIT_RETENTION must not be negative"))
	}
	if c.AuditRetention > 0 && c.AuditPruneInterval <= 0 {
		errs = append(errs, errors.New("NICKBOT_AUDIT_PRUNE_INTERVAL must be positive when retention is set"))
	}
	return errors.Join(errs...)
}

// AuditEnabled reports whether nickname changes should be persisted.
func (c *Config) AuditEnabled() bool {
	return !c.AuditDisabled && strings.TrimSpace(c.AuditDB) != ""
}

// LogValue keeps the bot token out of logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("token", "[redacted]"),
		slog.String("guild_id", c.GuildID),
		slog.String("role_id", c.RoleID),
		slog.String("log_level", c.LogLevel.String()),
		slog.String("log_file", c.LogFile),
		slog.String("audit_db", c.AuditDB),
		slog.Bool("audit_disabled", c.AuditDisabled),
		slog.Duration("audit_retention", c.AuditRetention),
		slog.Duration("slow_interaction_threshold", c.SlowInteractionThreshold),
		slog.Duration("shutdown_timeout", c.ShutdownTimeout),
	)
}
