package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/small-frappuccino/nicknamebot/pkg/config"
	"github.com/small-frappuccino/nicknamebot/pkg/storage"
	"github.com/small-frappuccino/nicknamebot/pkg/util"
	"github.com/spf13/cobra"
)

// auditEnv is the part of the environment the audit command needs; it
// works without a bot token.
type auditEnv struct {
	AuditDB string `env:"NICKBOT_AUDIT_DB" envDefault:"nicknamebot.sqlite3"`
	GuildID string `env:"DISCORD_GUILD_ID"`
}

func newAuditCmd() *cobra.Command {
	var (
		envFile   string
		dbPath    string
		limit     int
		targetID  string
		allGuilds bool
		olderThan time.Duration
	)

	cmd := &cobra.Command{
		Use:   "audit [flags]",
		Short: "List or prune recorded nickname changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := util.LoadEnvFiles(envFile); err != nil {
				return err
			}
			var env auditEnv
			if err := config.ParseEnv(&env); err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = env.AuditDB
			}
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("audit database %s: %w", dbPath, err)
			}

			store := storage.NewStore(dbPath)
			if err := store.Init(); err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if olderThan > 0 {
				n, err := store.PruneNicknameChanges(ctx, time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "pruned %d records older than %s\n", n, olderThan)
				return nil
			}

			filter := storage.ListFilter{TargetID: targetID, Limit: limit}
			if !allGuilds {
				filter.GuildID = env.GuildID
			}
			changes, err := store.ListNicknameChanges(ctx, filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tGUILD\tACTOR\tTARGET\tNICKNAME\tNICKNAME_OUTCOME\tROLE_OUTCOME")
			for _, c := range changes {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					c.ID, c.CreatedAt.Local().Format(time.DateTime), c.GuildID, c.ActorID, c.TargetID,
					c.Nickname, c.NicknameOutcome, c.RoleOutcome)
			}
			return w.Flush()
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&envFile, "env-file", "", "load variables from this file")
	flags.StringVar(&dbPath, "db", "", "audit database path (default $NICKBOT_AUDIT_DB)")
	flags.IntVar(&limit, "limit", 20, "maximum records to list (0 for all)")
	flags.StringVar(&targetID, "target", "", "only list changes for this user ID")
	flags.BoolVar(&allGuilds, "all-guilds", false, "do not filter by DISCORD_GUILD_ID")
	flags.DurationVar(&olderThan, "prune-older-than", 0, "delete records older than this duration instead of listing")
	return cmd
}
