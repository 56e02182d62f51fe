package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kyodo/backend/internal/common/bootstrap"
	"github.com/kyodo/backend/internal/common/logger"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the relationship store schema",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				version, err := bootstrap.Migrate(cmd.Context(), cfg, logger.NewWithWriter(cmd.ErrOrStderr(), "kyodo", cfg.Log.Level))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				return bootstrap.MigrationStatus(cmd.Context(), cfg)
			},
		},
	)
	return migrateCmd
}
