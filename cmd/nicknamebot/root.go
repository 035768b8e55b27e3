package main

import (
	"context"
	"os"

	"github.com/small-frappuccino/nicknamebot/pkg/app"
	"github.com/small-frappuccino/nicknamebot/pkg/log"
	"github.com/small-frappuccino/nicknamebot/pkg/util"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           app.Name + " [command]",
		Short:         "Discord bot that standardizes member nicknames as \"<First Name> | <University>\"",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Console-only logger until the configuration is known.
			_, _, err := log.Setup(log.Options{Console: cmd.ErrOrStderr(), NoColor: consoleNoColor(cmd)})
			return err
		},
	}
	root.PersistentFlags().Bool("no-color", false, "disable colored console logs")

	root.AddCommand(newRunCmd(), newAuditCmd(), newVersionCmd())
	return root
}

// consoleNoColor reports whether --no-color or NO_COLOR asks for plain
// console output.
func consoleNoColor(cmd *cobra.Command) bool {
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	return noColor
}

// Execute runs the CLI with a context cancelled on SIGINT, SIGTERM or SIGHUP.
func Execute() error {
	ctx, stop := util.SignalContext(context.Background())
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		log.Critical("Fatal error", "error", err)
	}
	return err
}
