package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/nicknamebot/pkg/config"
	"github.com/small-frappuccino/nicknamebot/pkg/discord/commands/core"
	"github.com/small-frappuccino/nicknamebot/pkg/discord/commands/nick"
	"github.com/small-frappuccino/nicknamebot/pkg/discord/member"
	"github.com/small-frappuccino/nicknamebot/pkg/log"
)

// CommandHandler is the main handler that coordinates all bot commands
type CommandHandler struct {
	session        *discordgo.Session
	cfg            *config.Config
	mutator        *member.Mutator
	commandManager *core.CommandManager
	logger         *slog.Logger
}

// NewCommandHandler creates a new CommandHandler instance
func NewCommandHandler(session *discordgo.Session, cfg *config.Config, mutator *member.Mutator) *CommandHandler {
	return &CommandHandler{
		session: session,
		cfg:     cfg,
		mutator: mutator,
		logger:  log.ApplicationLogger(),
	}
}

// SetupCommands registers the nickname commands and syncs them to the
// configured guild. ctx bounds every interaction handled afterwards.
func (ch *CommandHandler) SetupCommands(ctx context.Context) error {
	ch.logger.Info("Setting up bot commands...")

	ch.commandManager = core.NewCommandManager(ch.session, ch.logger)
	router := ch.commandManager.GetRouter()
	router.SetBaseContext(ctx)
	router.SetSlowThreshold(ch.cfg.SlowInteractionThreshold)

	nick.NewCommands(ch.mutator, router.GetPermissionChecker(), ch.cfg.StartMessage).Register(router)

	if err := ch.commandManager.SetupCommands(ch.cfg.GuildID); err != nil {
		return fmt.Errorf("failed to setup commands: %w", err)
	}

	ch.logger.Info("Bot commands setup completed successfully", slog.String("guild_id", ch.cfg.GuildID))
	return nil
}

// Shutdown stops routing new interactions.
func (ch *CommandHandler) Shutdown() error {
	ch.logger.Info("Shutting down command handler...")
	if ch.commandManager != nil {
		ch.commandManager.Shutdown()
	}
	return nil
}

// GetCommandManager returns the command manager (for tests or extensions)
func (ch *CommandHandler) GetCommandManager() *core.CommandManager {
	return ch.commandManager
}
