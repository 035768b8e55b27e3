package core

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ContextBuilder creates contexts for command execution
type ContextBuilder struct {
	session *discordgo.Session
	logger  *slog.Logger
}

// NewContextBuilder creates a new context builder
func NewContextBuilder(session *discordgo.Session, logger *slog.Logger) *ContextBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextBuilder{session: session, logger: logger}
}

// BuildContext creates a complete context for one interaction
func (cb *ContextBuilder) BuildContext(parent context.Context, i *discordgo.InteractionCreate) *Context {
	user := extractUser(i)
	userID := ""
	if user != nil {
		userID = user.ID
	}

	logger := cb.logger.With(
		slog.String("interaction", interactionLabel(i)),
		slog.String("guild_id", i.GuildID),
		slog.String("user_id", userID),
	)

	return &Context{
		Ctx:         parent,
		Session:     cb.session,
		Interaction: i,
		Logger:      logger,
		GuildID:     i.GuildID,
		UserID:      userID,
		User:        user,
		Member:      i.Member,
		Respond:     NewResponder(cb.session, i.Interaction),
	}
}

// extractUser returns the invoking user. Guild interactions carry it on
// Member, DMs on User.
func extractUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func interactionLabel(i *discordgo.InteractionCreate) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return "/" + i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		return "component:" + i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		return "modal:" + i.ModalSubmitData().CustomID
	default:
		return i.Type.String()
	}
}

// SplitCustomID splits "prefix:arg" into its parts. arg is empty when the
// custom ID has no ':'.
func SplitCustomID(customID string) (prefix, arg string) {
	prefix, arg, _ = strings.Cut(customID, ":")
	return prefix, arg
}

// IsSlashCommandInteraction checks if the interaction is a slash command
func IsSlashCommandInteraction(i *discordgo.InteractionCreate) bool {
	return i.Type == discordgo.InteractionApplicationCommand
}

func IsComponentInteraction(i *discordgo.InteractionCreate) bool {
	return i.Type == discordgo.InteractionMessageComponent
}

func IsModalSubmitInteraction(i *discordgo.InteractionCreate) bool {
	return i.Type == discordgo.InteractionModalSubmit
}
