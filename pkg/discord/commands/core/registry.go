package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/nicknamebot/pkg/discord/perf"
)

const (
	genericErrorMessage   = "An error occurred while executing the command"
	noResponseMessage     = "Nothing happened. Please try again."
	commandNotFoundReply  = "Command not found"
	guildOnlyCommandReply = "This command can only be used in a server"
)

// CommandRouter routes interactions to commands, components and modals and
// makes sure every interaction is answered exactly once.
type CommandRouter struct {
	registry       *CommandRegistry
	contextBuilder *ContextBuilder
	permChecker    *PermissionChecker
	logger         *slog.Logger
	perf           *perf.Tracker

	mu      sync.RWMutex
	baseCtx context.Context
}

// NewCommandRouter cria um novo roteador de comandos
func NewCommandRouter(session *discordgo.Session, logger *slog.Logger) *CommandRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandRouter{
		registry:       NewCommandRegistry(),
		contextBuilder: NewContextBuilder(session, logger),
		permChecker:    NewPermissionChecker(session),
		logger:         logger,
		perf:           perf.NewTracker(perf.DefaultSlowThreshold),
		baseCtx:        context.Background(),
	}
}

// SetSlowThreshold changes when a handler is logged as slow. Zero disables
// the warning.
func (cr *CommandRouter) SetSlowThreshold(d time.Duration) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.perf = perf.NewTracker(d)
}

func (cr *CommandRouter) tracker() *perf.Tracker {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.perf
}

// SetBaseContext sets the parent of every handler context. Cancelling it
// aborts in-flight REST calls.
func (cr *CommandRouter) SetBaseContext(ctx context.Context) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.baseCtx = ctx
}

func (cr *CommandRouter) base() context.Context {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.baseCtx
}

// RegisterCommand registra um comando simples
func (cr *CommandRouter) RegisterCommand(cmd Command) {
	cr.registry.Register(cmd)
}

// RegisterComponent registers a handler for an exact component custom ID.
func (cr *CommandRouter) RegisterComponent(customID string, h ComponentHandler) {
	cr.registry.RegisterComponent(customID, h)
}

// RegisterModal registers a handler for modals whose custom ID is prefix or
// starts with prefix + ":".
func (cr *CommandRouter) RegisterModal(prefix string, h ModalHandler) {
	cr.registry.RegisterModal(prefix, h)
}

// HandleInteraction is the discordgo event handler.
func (cr *CommandRouter) HandleInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	switch {
	case IsSlashCommandInteraction(i), IsComponentInteraction(i), IsModalSubmitInteraction(i):
	default:
		return
	}

	ctx, cancel := context.WithCancel(cr.base())
	defer cancel()

	cctx := cr.contextBuilder.BuildContext(ctx, i)
	done := cr.tracker().Start(cctx.Logger, interactionLabel(i))
	defer done()
	cr.run(cctx, func() error { return cr.dispatch(cctx) })
}

func (cr *CommandRouter) dispatch(ctx *Context) error {
	i := ctx.Interaction
	switch {
	case IsSlashCommandInteraction(i):
		cmd, exists := cr.registry.GetCommand(i.ApplicationCommandData().Name)
		if !exists {
			return NewCommandError(commandNotFoundReply, true)
		}
		if cmd.RequiresGuild() && ctx.GuildID == "" {
			return NewCommandError(guildOnlyCommandReply, true)
		}
		return cmd.Handle(ctx)

	case IsComponentInteraction(i):
		h, exists := cr.registry.GetComponent(i.MessageComponentData().CustomID)
		if !exists {
			return NewCommandError(commandNotFoundReply, true)
		}
		return h(ctx)

	case IsModalSubmitInteraction(i):
		prefix, arg := SplitCustomID(i.ModalSubmitData().CustomID)
		h, exists := cr.registry.GetModal(prefix)
		if !exists {
			return NewCommandError(commandNotFoundReply, true)
		}
		return h(ctx, arg)
	}
	return nil
}

// run executes fn and answers the interaction if fn did not, whether it
// returned an error, returned nil without responding, or panicked.
func (cr *CommandRouter) run(ctx *Context, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			ctx.Logger.Error("Interaction handler panicked",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			cr.fallback(ctx, genericErrorMessage)
		}
	}()

	ctx.Logger.Debug("Processing interaction")
	err := fn()
	if err == nil {
		if !ctx.Respond.Responded() {
			ctx.Logger.Warn("Handler returned without responding")
			cr.fallback(ctx, noResponseMessage)
		}
		return
	}

	var cmdErr *CommandError
	var valErr *ValidationError
	switch {
	case errors.As(err, &cmdErr):
		ctx.Logger.Warn("Command rejected", slog.String("reason", cmdErr.Message))
		if ctx.Respond.Responded() {
			return
		}
		var sendErr error
		if cmdErr.Ephemeral {
			sendErr = ctx.Respond.Error(cmdErr.Message)
		} else {
			sendErr = ctx.Respond.Message(cmdErr.Message)
		}
		cr.logSendError(ctx, sendErr)
	case errors.As(err, &valErr):
		ctx.Logger.Info("Invalid input", slog.String("field", valErr.Field), slog.String("reason", valErr.Message))
		cr.fallback(ctx, valErr.Message)
	default:
		ctx.Logger.Error("Command execution failed", slog.Any("error", err))
		cr.fallback(ctx, genericErrorMessage)
	}
}

func (cr *CommandRouter) fallback(ctx *Context, message string) {
	if ctx.Respond.Responded() {
		return
	}
	cr.logSendError(ctx, ctx.Respond.Error(message))
}

func (cr *CommandRouter) logSendError(ctx *Context, err error) {
	if err != nil && !errors.Is(err, ErrAlreadyResponded) {
		ctx.Logger.Error("Failed to respond to interaction", slog.Any("error", err))
	}
}

// GetPermissionChecker returns the permission checker
func (cr *CommandRouter) GetPermissionChecker() *PermissionChecker {
	return cr.permChecker
}

// CommandManager owns the router and keeps the guild's registered commands
// in sync with the code.
type CommandManager struct {
	session *discordgo.Session
	router  *CommandRouter
	logger  *slog.Logger
	remove  func()
}

// NewCommandManager cria um novo gerenciador de comandos
func NewCommandManager(session *discordgo.Session, logger *slog.Logger) *CommandManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandManager{
		session: session,
		router:  NewCommandRouter(session, logger),
		logger:  logger.With(slog.String("component", "command_manager")),
	}
}

// GetRouter retorna o roteador de comandos
func (cm *CommandManager) GetRouter() *CommandRouter {
	return cm.router
}

// SetupCommands installs the interaction handler and syncs guild commands.
func (cm *CommandManager) SetupCommands(guildID string) error {
	if cm.remove == nil {
		cm.remove = cm.session.AddHandler(cm.router.HandleInteraction)
	}
	return cm.SyncCommands(guildID)
}

// Shutdown detaches the interaction handler.
func (cm *CommandManager) Shutdown() {
	if cm.remove != nil {
		cm.remove()
		cm.remove = nil
	}
}

// SyncCommands creates, updates and deletes guild commands so that Discord
// matches the registry. Unchanged commands are left alone.
func (cm *CommandManager) SyncCommands(guildID string) error {
	if cm.session.State == nil || cm.session.State.User == nil {
		return errors.New("session has no application user; open the session first")
	}
	appID := cm.session.State.User.ID

	registered, err := cm.session.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("failed to fetch registered commands: %w", err)
	}

	regByName := make(map[string]*discordgo.ApplicationCommand, len(registered))
	for _, rc := range registered {
		regByName[rc.Name] = rc
	}

	codeCommands := cm.router.registry.GetAllCommands()

	created, updated, unchanged := 0, 0, 0
	for name, cmd := range codeCommands {
		desired := &discordgo.ApplicationCommand{
			Name:                     cmd.Name(),
			Description:              cmd.Description(),
			Options:                  cmd.Options(),
			DefaultMemberPermissions: cmd.DefaultMemberPermissions(),
		}

		if existing, ok := regByName[name]; ok {
			if CompareCommands(existing, desired) {
				cm.logger.Debug("Command unchanged, skipping", slog.String("command", name))
				unchanged++
				continue
			}
			if _, err := cm.session.ApplicationCommandEdit(appID, guildID, existing.ID, desired); err != nil {
				return fmt.Errorf("error updating command '%s': %w", name, err)
			}
			cm.logger.Info("Command updated", slog.String("command", name))
			updated++
			continue
		}

		if _, err := cm.session.ApplicationCommandCreate(appID, guildID, desired); err != nil {
			return fmt.Errorf("error creating command '%s': %w", name, err)
		}
		cm.logger.Info("Command created", slog.String("command", name))
		created++
	}

	deleted := 0
	for _, rc := range registered {
		if _, exists := codeCommands[rc.Name]; exists {
			continue
		}
		if err := cm.session.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			cm.logger.Warn("Error removing orphan command", slog.String("command", rc.Name), slog.Any("error", err))
			continue
		}
		cm.logger.Info("Orphan command removed", slog.String("command", rc.Name))
		deleted++
	}

	cm.logger.Info("Command synchronization completed",
		slog.Int("created", created),
		slog.Int("updated", updated),
		slog.Int("deleted", deleted),
		slog.Int("unchanged", unchanged),
		slog.Int("total", len(codeCommands)),
		slog.String("guild_id", guildID),
	)
	return nil
}
