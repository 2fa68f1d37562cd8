package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/pdabridge/internal/archive"
	"github.com/cory-johannsen/pdabridge/internal/config"
	"github.com/cory-johannsen/pdabridge/internal/observability"
)

var (
	migrateDirection string
	migrateSteps     int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the transcript archive schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		start := time.Now()
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger, err := observability.NewLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		target, err := migrateTarget(cfg.Archive)
		if err != nil {
			return err
		}
		res, err := archive.Migrate(cfg.Archive.Driver, target, archive.Direction(migrateDirection), migrateSteps, logger)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		if res.NoChange {
			fmt.Fprintf(cmd.OutOrStdout(), "no changes (version=%d dirty=%v) [%s]\n", res.Version, res.Dirty, elapsed)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrated %s to version=%d dirty=%v [%s]\n", migrateDirection, res.Version, res.Dirty, elapsed)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDirection, "direction", string(archive.Up), "migration direction: up or down")
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 0, "number of steps (0 = all)")
}

func migrateTarget(cfg config.ArchiveConfig) (string, error) {
	switch cfg.Driver {
	case archive.DriverSQLite:
		return cfg.Path, nil
	case archive.DriverPostgres:
		return cfg.Database.DSN(), nil
	}
	return "", fmt.Errorf("archive.driver %q has no schema to migrate", cfg.Driver)
}
