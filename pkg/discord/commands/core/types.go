package core

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Command is a guild slash command.
type Command interface {
	Name() string
	Description() string
	Options() []*discordgo.ApplicationCommandOption
	// DefaultMemberPermissions is the permission bitset Discord uses to hide
	// the command from members lacking it. Nil means visible to everyone.
	DefaultMemberPermissions() *int64
	RequiresGuild() bool
	Handle(ctx *Context) error
}

// ComponentHandler handles a message component (button) interaction.
type ComponentHandler func(ctx *Context) error

// ModalHandler handles a modal submission. arg is the part of the custom ID
// after the first ':' (empty when there is none).
type ModalHandler func(ctx *Context, arg string) error

// Context is handed to every handler. It lives for one interaction.
type Context struct {
	Ctx         context.Context
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Logger      *slog.Logger
	GuildID     string
	UserID      string
	User        *discordgo.User
	Member      *discordgo.Member
	Respond     *Responder
}

// CommandRegistry holds commands and the custom-ID keyed component and
// modal handlers.
type CommandRegistry struct {
	commands   map[string]Command
	components map[string]ComponentHandler
	modals     map[string]ModalHandler
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands:   make(map[string]Command),
		components: make(map[string]ComponentHandler),
		modals:     make(map[string]ModalHandler),
	}
}

// Register adds cmd, replacing any command with the same name.
func (r *CommandRegistry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// RegisterComponent binds a handler to an exact component custom ID.
func (r *CommandRegistry) RegisterComponent(customID string, h ComponentHandler) {
	r.components[customID] = h
}

// RegisterModal binds a handler to a modal custom ID prefix.
func (r *CommandRegistry) RegisterModal(prefix string, h ModalHandler) {
	r.modals[prefix] = h
}

func (r *CommandRegistry) GetCommand(name string) (Command, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

func (r *CommandRegistry) GetComponent(customID string) (ComponentHandler, bool) {
	h, exists := r.components[customID]
	return h, exists
}

func (r *CommandRegistry) GetModal(prefix string) (ModalHandler, bool) {
	h, exists := r.modals[prefix]
	return h, exists
}

// GetAllCommands returns all registered commands keyed by name.
func (r *CommandRegistry) GetAllCommands() map[string]Command {
	return r.commands
}

// CommandError carries a message meant for the invoking user.
type CommandError struct {
	Message   string
	Ephemeral bool
}

func (e *CommandError) Error() string {
	return e.Message
}

func NewCommandError(message string, ephemeral bool) *CommandError {
	return &CommandError{
		Message:   message,
		Ephemeral: ephemeral,
	}
}

// ValidationError reports a bad option or modal field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// SimpleCommand implements Command from plain values.
type SimpleCommand struct {
	name          string
	description   string
	options       []*discordgo.ApplicationCommandOption
	permissions   *int64
	handler       func(ctx *Context) error
	requiresGuild bool
}

func NewSimpleCommand(
	name, description string,
	options []*discordgo.ApplicationCommandOption,
	permissions *int64,
	handler func(ctx *Context) error,
	requiresGuild bool,
) *SimpleCommand {
	return &SimpleCommand{
		name:          name,
		description:   description,
		options:       options,
		permissions:   permissions,
		handler:       handler,
		requiresGuild: requiresGuild,
	}
}

func (sc *SimpleCommand) Name() string        { return sc.name }
func (sc *SimpleCommand) Description() string { return sc.description }
func (sc *SimpleCommand) Options() []*discordgo.ApplicationCommandOption {
	return sc.options
}
func (sc *SimpleCommand) DefaultMemberPermissions() *int64 { return sc.permissions }
func (sc *SimpleCommand) Handle(ctx *Context) error        { return sc.handler(ctx) }
func (sc *SimpleCommand) RequiresGuild() bool              { return sc.requiresGuild }
