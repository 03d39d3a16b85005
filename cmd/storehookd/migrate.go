package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func migrateCmd(load func() (*Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run store migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			cfg.Webhooks.DisableMigrate = false

			logger := newLogger(cfg.Log, os.Stderr)
			ext, err := newExtension(cfg, logger)
			if err != nil {
				return err
			}
			if err := ext.Start(cmd.Context()); err != nil {
				return err
			}
			defer ext.Stop(cmd.Context()) //nolint:errcheck

			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.Store.Backend)
			return nil
		},
	}
}
