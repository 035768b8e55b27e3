package member

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/nicknamebot/pkg/errutil"
	"github.com/small-frappuccino/nicknamebot/pkg/nickname"
)

// IdentityFromUser converts a user with unknown roles.
func IdentityFromUser(u *discordgo.User) nickname.Identity {
	if u == nil {
		return nickname.Identity{}
	}
	return nickname.Identity{ID: u.ID, Username: u.Username, GlobalName: u.GlobalName}
}

// IdentityFromMember converts a guild member, keeping its roles.
func IdentityFromMember(m *discordgo.Member) nickname.Identity {
	if m == nil {
		return nickname.Identity{}
	}
	id := IdentityFromUser(m.User)
	id.Roles = m.Roles
	if id.Roles == nil {
		id.Roles = []string{}
	}
	return id
}

// Resolve looks a member up in the state cache, then over REST.
func Resolve(ctx context.Context, session *discordgo.Session, guildID, userID string) (nickname.Identity, error) {
	if session.State != nil {
		if m, err := session.State.Member(guildID, userID); err == nil && m != nil && m.User != nil {
			return IdentityFromMember(m), nil
		}
	}

	var m *discordgo.Member
	err := errutil.HandleDiscordError("member_lookup", func() error {
		var err error
		m, err = session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return nickname.Identity{}, fmt.Errorf("resolve member %s: %w", userID, err)
	}
	if m.User == nil {
		m.User = &discordgo.User{ID: userID}
	}
	return IdentityFromMember(m), nil
}
