package main

import (
	"fmt"

	"github.com/small-frappuccino/nicknamebot/pkg/app"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of the application",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "version=%s commit=%s built: %s\n",
				app.AppVersion(), app.CommitSHA, app.BuildTime)
		},
	}
}
