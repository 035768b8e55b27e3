package core

import (
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// OptionExtractor simplifies extraction of options for Discord commands
type OptionExtractor struct {
	options  []*discordgo.ApplicationCommandInteractionDataOption
	resolved *discordgo.ApplicationCommandInteractionDataResolved
}

// NewOptionExtractor creates an extractor over the top-level options of a
// slash command interaction.
func NewOptionExtractor(data discordgo.ApplicationCommandInteractionData) *OptionExtractor {
	return &OptionExtractor{options: data.Options, resolved: data.Resolved}
}

func (e *OptionExtractor) find(name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range e.options {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

// String extracts a string option by name. The value is returned as sent.
func (e *OptionExtractor) String(name string) string {
	opt := e.find(name)
	if opt == nil || opt.Type != discordgo.ApplicationCommandOptionString {
		return ""
	}
	return opt.StringValue()
}

// User returns the user and, when present, guild member resolved for a
// user option. The member's User field is filled in from the user.
func (e *OptionExtractor) User(name string) (*discordgo.User, *discordgo.Member, error) {
	opt := e.find(name)
	if opt == nil || opt.Type != discordgo.ApplicationCommandOptionUser {
		return nil, nil, NewValidationError(name, fmt.Sprintf("Option '%s' is required", name))
	}
	id, _ := opt.Value.(string)
	if id == "" {
		return nil, nil, NewValidationError(name, fmt.Sprintf("Option '%s' is not a user", name))
	}

	user := &discordgo.User{ID: id}
	var member *discordgo.Member
	if e.resolved != nil {
		if u, ok := e.resolved.Users[id]; ok && u != nil {
			user = u
		}
		if m, ok := e.resolved.Members[id]; ok && m != nil {
			copied := *m
			copied.User = user
			member = &copied
		}
	}
	return user, member, nil
}

// HasOption checks whether an option exists
func (e *OptionExtractor) HasOption(name string) bool {
	return e.find(name) != nil
}

// ModalValues flattens the text inputs of a modal submission into a map
// keyed by custom ID.
func ModalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	var walk func([]discordgo.MessageComponent)
	walk = func(components []discordgo.MessageComponent) {
		for _, c := range components {
			switch v := c.(type) {
			case *discordgo.ActionsRow:
				walk(v.Components)
			case discordgo.ActionsRow:
				walk(v.Components)
			case *discordgo.TextInput:
				values[v.CustomID] = v.Value
			case discordgo.TextInput:
				values[v.CustomID] = v.Value
			}
		}
	}
	walk(data.Components)
	return values
}

// PermissionChecker evaluates the permissions Discord resolved for the
// invoking member.
type PermissionChecker struct {
	session *discordgo.Session
}

func NewPermissionChecker(session *discordgo.Session) *PermissionChecker {
	return &PermissionChecker{session: session}
}

// HasPermission reports whether member holds perm. Administrators and the
// guild owner hold every permission.
func (pc *PermissionChecker) HasPermission(guildID string, member *discordgo.Member, perm int64) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if member.Permissions&perm == perm {
		return true
	}
	return member.User != nil && pc.IsOwner(guildID, member.User.ID)
}

// IsOwner checks whether the user owns the guild, using the state cache.
func (pc *PermissionChecker) IsOwner(guildID, userID string) bool {
	if guildID == "" || pc.session == nil || pc.session.State == nil {
		return false
	}
	g, err := pc.session.State.Guild(guildID)
	if err != nil || g == nil {
		return false
	}
	return g.OwnerID == userID
}

// CompareCommands compares two commands to check if they are semantically equal
func CompareCommands(a, b *discordgo.ApplicationCommand) bool {
	type shape struct {
		Name                     string                                `json:"name"`
		Description              string                                `json:"description"`
		Options                  []*discordgo.ApplicationCommandOption `json:"options"`
		DefaultMemberPermissions *int64                                `json:"default_member_permissions"`
	}
	ba, _ := json.Marshal(shape{a.Name, a.Description, a.Options, a.DefaultMemberPermissions})
	bb, _ := json.Marshal(shape{b.Name, b.Description, b.Options, b.DefaultMemberPermissions})
	return string(ba) == string(bb)
}

// Int64Ptr is a helper for DefaultMemberPermissions literals.
func Int64Ptr(v int64) *int64 { return &v }

// IntPtr is a helper for option MinLength literals.
func IntPtr(v int) *int { return &v }
