// Package nick implements the nickname entry points: /nick, /nickadmin,
// /start, the persistent start button and the nickname form submit.
package nick

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/nicknamebot/pkg/discord/commands/core"
	"github.com/small-frappuccino/nicknamebot/pkg/discord/member"
	"github.com/small-frappuccino/nicknamebot/pkg/nickname"
)

const (
	// StartButtonID is stable across restarts so buttons posted by earlier
	// processes keep working.
	StartButtonID    = "persistent_view:start"
	StartButtonLabel = "Change Nickname"

	targetOption     = "target"
	nameOption       = "name"
	universityOption = "university"
	messageOption    = "msg"
)

// Commands binds the entry points to a mutator.
type Commands struct {
	mutator      *member.Mutator
	checker      *core.PermissionChecker
	startMessage string
}

// NewCommands returns the entry points. startMessage is the default /start
// prompt.
func NewCommands(mutator *member.Mutator, checker *core.PermissionChecker, startMessage string) *Commands {
	return &Commands{mutator: mutator, checker: checker, startMessage: startMessage}
}

// Register adds every command, the button and the form handler to router.
func (c *Commands) Register(router *core.CommandRouter) {
	for _, cmd := range c.Definitions() {
		router.RegisterCommand(cmd)
	}
	router.RegisterComponent(StartButtonID, c.handleStartButton)
	router.RegisterModal(ModalID, c.handleFormSubmit)
}

// Definitions returns the slash commands in registration order.
func (c *Commands) Definitions() []core.Command {
	return []core.Command{
		core.NewSimpleCommand(
			"start",
			"Post the message with the Change Nickname button",
			[]*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        messageOption,
				Description: "Text shown above the button",
			}},
			core.Int64Ptr(discordgo.PermissionManageServer),
			c.handleStart,
			true,
		),
		core.NewSimpleCommand(
			"nickadmin",
			"Set a member's nickname",
			[]*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        targetOption,
					Description: "Member to rename (defaults to you)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        nameOption,
					Description: "First name",
					MinLength:   core.IntPtr(nickname.MinNameLength),
					MaxLength:   nickname.MaxNameLength,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        universityOption,
					Description: "University",
					MinLength:   core.IntPtr(nickname.MinInstitutionLength),
					MaxLength:   nickname.MaxInstitutionLength,
				},
			},
			core.Int64Ptr(discordgo.PermissionManageNicknames),
			c.handleNickAdmin,
			true,
		),
		core.NewSimpleCommand(
			"nick",
			"Set your nickname",
			nil,
			nil,
			c.handleNick,
			true,
		),
	}
}

func (c *Commands) handleNick(ctx *core.Context) error {
	actor, err := c.invoker(ctx)
	if err != nil {
		return err
	}
	return c.openForm(ctx, Form{Target: actor})
}

func (c *Commands) handleStartButton(ctx *core.Context) error {
	return c.handleNick(ctx)
}

func (c *Commands) handleStart(ctx *core.Context) error {
	msg := core.NewOptionExtractor(ctx.Interaction.ApplicationCommandData()).String(messageOption)
	if strings.TrimSpace(msg) == "" {
		msg = c.startMessage
	}
	return ctx.Respond.Message(msg, discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    StartButtonLabel,
				Style:    discordgo.PrimaryButton,
				CustomID: StartButtonID,
			},
		},
	})
}

func (c *Commands) handleNickAdmin(ctx *core.Context) error {
	actor, err := c.invoker(ctx)
	if err != nil {
		return err
	}
	if !c.checker.HasPermission(ctx.GuildID, ctx.Member, discordgo.PermissionManageNicknames) {
		return core.NewCommandError("You need the Manage Nicknames permission to use this command", true)
	}

	options := core.NewOptionExtractor(ctx.Interaction.ApplicationCommandData())
	target := actor
	if options.HasOption(targetOption) {
		user, m, err := options.User(targetOption)
		if err != nil {
			return err
		}
		if m != nil {
			target = member.IdentityFromMember(m)
		} else {
			target = member.IdentityFromUser(user)
		}
	}

	name := options.String(nameOption)
	university := options.String(universityOption)
	if strings.TrimSpace(name) != "" && strings.TrimSpace(university) != "" {
		return c.change(ctx, nickname.Request{
			RawName:        name,
			RawInstitution: university,
			Target:         target,
			Actor:          actor,
		})
	}

	return c.openForm(ctx, Form{
		Target:     target,
		OnBehalf:   target.ID != actor.ID,
		Name:       name,
		University: university,
	})
}

func (c *Commands) handleFormSubmit(ctx *core.Context, targetID string) error {
	actor, err := c.invoker(ctx)
	if err != nil {
		return err
	}

	target := actor
	if targetID != "" && targetID != actor.ID {
		if !c.checker.HasPermission(ctx.GuildID, ctx.Member, discordgo.PermissionManageNicknames) {
			return core.NewCommandError("You need the Manage Nicknames permission to rename other members", true)
		}
		target, err = member.Resolve(ctx.Ctx, ctx.Session, ctx.GuildID, targetID)
		if err != nil {
			return err
		}
	}

	values := core.ModalValues(ctx.Interaction.ModalSubmitData())
	return c.change(ctx, nickname.Request{
		RawName:        values[nameField],
		RawInstitution: values[universityField],
		Target:         target,
		Actor:          actor,
	})
}

func (c *Commands) change(ctx *core.Context, req nickname.Request) error {
	res, err := c.mutator.Change(ctx.Ctx, req)
	var valErr *nickname.ValidationError
	if errors.As(err, &valErr) {
		return core.NewValidationError(valErr.Field, valErr.Message)
	}
	if err != nil {
		return err
	}
	ctx.Logger.Debug("Nickname flow finished",
		slog.String("nickname", res.Nickname),
		slog.String("nickname_outcome", res.NicknameOutcome.String()),
		slog.String("role_outcome", res.RoleOutcome.String()))
	return ctx.Respond.Ephemeral(res.Message)
}

func (c *Commands) openForm(ctx *core.Context, form Form) error {
	return ctx.Respond.Modal(form.CustomID(), ModalTitle, form.Components()...)
}

// invoker returns the acting member, rejecting interactions from other
// guilds or from DMs.
func (c *Commands) invoker(ctx *core.Context) (nickname.Identity, error) {
	if ctx.Member == nil || ctx.User == nil {
		return nickname.Identity{}, core.NewCommandError("This command can only be used in a server", true)
	}
	if ctx.GuildID != c.mutator.GuildID() {
		return nickname.Identity{}, core.NewCommandError("This bot is not configured for this server", true)
	}
	actor := member.IdentityFromMember(ctx.Member)
	if actor.ID == "" {
		actor = member.IdentityFromUser(ctx.User)
	}
	return actor, nil
}
