package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oilfield-ai/drillquery/internal/config"
	"github.com/oilfield-ai/drillquery/internal/storage"
	"github.com/oilfield-ai/drillquery/migrations"
)

func newMigrateCommand() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded PostgreSQL migrations to DATABASE_URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyOverrides(cmd.Flags(), &cfg)
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("migrate: DATABASE_URL is required")
			}
			logger := newLogger(cfg.LogLevel, os.Stderr)
			ctx := cmd.Context()

			db, err := storage.New(ctx, cfg.DatabaseURL, 2, logger)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer db.Close()

			if err := db.RunMigrations(ctx, migrations.FS); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if seed {
				if err := db.Seed(ctx, storage.DemoFixtures()); err != nil {
					return fmt.Errorf("migrate: seed: %w", err)
				}
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (seeded: %t)\n", seed)
			return err
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load the demo wells and reports after migrating")
	return cmd
}
