package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func purgeCmd(load func() (*Config, error)) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete delivery log entries older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if olderThan <= 0 {
				olderThan = cfg.Retention.MaxAge
			}

			logger := newLogger(cfg.Log, os.Stderr)
			ext, err := newExtension(cfg, logger)
			if err != nil {
				return err
			}
			if err := ext.Start(cmd.Context()); err != nil {
				return err
			}
			defer ext.Stop(cmd.Context()) //nolint:errcheck

			n, err := ext.Hook().PurgeLogs(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d log entries older than %s\n", n, olderThan)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "age threshold (defaults to retention.max_age)")

	return cmd
}
