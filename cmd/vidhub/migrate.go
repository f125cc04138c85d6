package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/vidhub-core/internal/infrastructure/config"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/database"
	"github.com/nerrad567/vidhub-core/migrations"
)

// NewMigrateCmd creates the migrate subcommand and its up, down and status children.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back or list the embedded SQLite schema migrations.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE:  runMigrateDown,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		RunE:  runMigrateStatus,
	})

	return cmd
}

// withDatabase loads the config, opens the database and hands it to fn.
func withDatabase(fn func(db *database.DB) error) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	return withDatabase(func(db *database.DB) error {
		cmd.Println("Running migrations...")
		applied, err := db.Migrate(cmd.Context(), migrations.FS)
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		cmd.Printf("Migrations completed successfully (%d applied)\n", applied)
		return nil
	})
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	return withDatabase(func(db *database.DB) error {
		if err := db.MigrateDown(cmd.Context(), migrations.FS); err != nil {
			return fmt.Errorf("rolling back migration: %w", err)
		}
		version, err := db.SchemaVersion(cmd.Context(), migrations.FS)
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
		cmd.Printf("Rolled back, schema version is now %d\n", version)
		return nil
	})
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	return withDatabase(func(db *database.DB) error {
		statuses, err := db.GetMigrationStatus(cmd.Context(), migrations.FS)
		if err != nil {
			return fmt.Errorf("reading migration status: %w", err)
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied " + s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			cmd.Printf("%05d  %-28s %s\n", s.Version, s.Path, state)
		}
		return nil
	})
}
