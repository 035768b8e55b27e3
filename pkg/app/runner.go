package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/nicknamebot/pkg/config"
	"github.com/small-frappuccino/nicknamebot/pkg/discord/commands"
	"github.com/small-frappuccino/nicknamebot/pkg/discord/member"
	"github.com/small-frappuccino/nicknamebot/pkg/discord/session"
	"github.com/small-frappuccino/nicknamebot/pkg/errutil"
	"github.com/small-frappuccino/nicknamebot/pkg/log"
	"github.com/small-frappuccino/nicknamebot/pkg/storage"
	"github.com/small-frappuccino/nicknamebot/pkg/task"
	"github.com/small-frappuccino/nicknamebot/pkg/util"
)

// Swapped out in tests.
var (
	openSession  = session.NewDiscordSession
	closeSession = session.Close
)

// Run starts the bot with cfg and blocks until ctx is cancelled. Logging
// is expected to be set up by the caller.
func Run(ctx context.Context, cfg *config.Config) error {
	started := time.Now()
	logger := log.ApplicationLogger()

	if err := errutil.InitializeGlobalErrorHandler(slog.Default()); err != nil {
		return fmt.Errorf("initialize global error handler: %w", err)
	}

	logger.Info(formatStartupMessage(Name, AppVersion()), slog.Any("config", cfg))

	var (
		store    *storage.Store
		recorder member.Recorder
		tasks    *task.TaskRouter
	)
	if cfg.AuditEnabled() {
		store = storage.NewStore(cfg.AuditDB)
		if err := store.Init(); err != nil {
			return fmt.Errorf("initialize SQLite store: %w", err)
		}
		recorder = store
		log.DatabaseLogger().Info("Audit store ready", slog.String("path", cfg.AuditDB))
		if cfg.AuditRetention > 0 {
			tasks = startAuditRetention(store, cfg.AuditRetention, cfg.AuditPruneInterval, log.DatabaseLogger())
		}
	} else {
		logger.Info("Audit store disabled")
	}

	discordSession, err := openSession(session.Options{
		Token:          cfg.Token,
		Logger:         log.DiscordLogger(),
		DiscordgoLevel: cfg.DiscordgoLogLevel,
	})
	if err != nil {
		closeStore(tasks, store)
		return fmt.Errorf("create discord session: %w", err)
	}
	if discordSession.State == nil || discordSession.State.User == nil {
		_ = closeSession(discordSession)
		closeStore(tasks, store)
		return fmt.Errorf("discord session state not properly initialized")
	}
	log.DiscordLogger().Info("Authenticated",
		slog.String("user", discordSession.State.User.Username),
		slog.String("user_id", discordSession.State.User.ID))

	mutator := member.NewMutator(discordSession, cfg.GuildID, cfg.RoleID, recorder, log.For("nickname"))
	commandHandler := commands.NewCommandHandler(discordSession, cfg, mutator)
	if err := commandHandler.SetupCommands(ctx); err != nil {
		shutdown(cfg.ShutdownTimeout, commandHandler, discordSession, tasks, store)
		return fmt.Errorf("configure slash commands: %w", err)
	}

	logger.Info(fmt.Sprintf("🎯 %s initialized successfully in %s", Name, time.Since(started).Round(time.Millisecond)))
	logger.Info(fmt.Sprintf("🤖 %s running. Press Ctrl+C to stop...", Name))

	util.WaitForInterrupt(ctx, func() {
		logger.Info(fmt.Sprintf("🛑 Stopping %s...", Name))
	})

	if err := shutdown(cfg.ShutdownTimeout, commandHandler, discordSession, tasks, store); err != nil {
		logger.Warn("Shutdown did not complete cleanly", slog.Any("error", err))
	}
	return nil
}

// shutdown detaches handlers, closes the gateway, stops background tasks
// and closes the store, giving up after timeout.
func shutdown(timeout time.Duration, handler *commands.CommandHandler, s *discordgo.Session, tasks *task.TaskRouter, store *storage.Store) error {
	ctx, cancel := context.WithTimeoutCause(context.Background(), timeout, errors.New("application shutdown"))
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var errs []error
		if handler != nil {
			errs = append(errs, handler.Shutdown())
		}
		if s != nil {
			errs = append(errs, closeSession(s))
		}
		if tasks != nil {
			tasks.Close()
		}
		if store != nil {
			errs = append(errs, store.Close())
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func closeStore(tasks *task.TaskRouter, store *storage.Store) {
	if tasks != nil {
		tasks.Close()
	}
	if store != nil {
		_ = store.Close()
	}
}

func formatStartupMessage(appName, appVersion string) string {
	appName = strings.TrimSpace(appName)
	appVersion = strings.TrimSpace(appVersion)
	if appVersion == "" || appVersion == "dev" {
		return fmt.Sprintf("🚀 Starting %s...", appName)
	}
	return fmt.Sprintf("🚀 Starting %s %s...", appName, appVersion)
}
