package main

import (
	"fmt"
	"log/slog"

	"github.com/small-frappuccino/nicknamebot/pkg/app"
	"github.com/small-frappuccino/nicknamebot/pkg/config"
	"github.com/small-frappuccino/nicknamebot/pkg/log"
	"github.com/spf13/cobra"
)

// runApp is swapped out in tests.
var runApp = app.Run

func newRunCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Connect to Discord and serve the nickname commands until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			_, closer, err := log.Setup(log.Options{
				Level:      cfg.LogLevel,
				Console:    cmd.ErrOrStderr(),
				NoColor:    consoleNoColor(cmd),
				File:       cfg.LogFile,
				MaxSizeMB:  cfg.LogMaxSizeMB,
				MaxBackups: cfg.LogMaxBackups,
			})
			if err != nil {
				return fmt.Errorf("configure logger: %w", err)
			}
			defer closer.Close()

			if err := runApp(cmd.Context(), cfg); err != nil {
				return err
			}
			log.ApplicationLogger().Info("Shutdown complete", slog.String("app", app.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "load variables from this file instead of ./.env and ~/.local/bin/.env")
	return cmd
}
