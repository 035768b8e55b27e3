package commands

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/nicknamebot/internal/discordtest"
	"github.com/small-frappuccino/nicknamebot/pkg/config"
	"github.com/small-frappuccino/nicknamebot/pkg/discord/member"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupCommandsSyncsGuildCommands(t *testing.T) {
	srv, session := discordtest.New(t)
	session.State.User = &discordgo.User{ID: "app"}
	srv.AddCommand(&discordgo.ApplicationCommand{ID: "9", Name: "config", Description: "leftover"})

	cfg := &config.Config{GuildID: "100", RoleID: "200", StartMessage: config.DefaultStartMessage}
	handler := NewCommandHandler(session, cfg, member.NewMutator(session, cfg.GuildID, cfg.RoleID, nil, nil))

	require.NoError(t, handler.SetupCommands(context.Background()))
	t.Cleanup(func() { _ = handler.Shutdown() })

	commands := srv.Commands()
	assert.Len(t, commands, 3)
	for _, name := range []string{"nick", "nickadmin", "start"} {
		assert.Contains(t, commands, name)
	}
	assert.NotContains(t, commands, "config")
	assert.NotEmpty(t, srv.Matching("POST", "/applications/app/guilds/100/commands"))

	// A second sync with nothing changed only lists.
	before := len(srv.Requests())
	require.NoError(t, handler.GetCommandManager().SyncCommands(cfg.GuildID))
	after := srv.Requests()[before:]
	require.Len(t, after, 1)
	assert.Equal(t, "GET", after[0].Method)
}
