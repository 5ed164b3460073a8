package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cardsched/internal/config"
	"github.com/at-ishikawa/cardsched/internal/database"
)

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the MySQL schema",
	}

	migrateCmd.AddCommand(newMigrateUpCommand())
	migrateCmd.AddCommand(newMigrateDownCommand())

	return migrateCmd
}

func loadMySQLConfig() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.Driver != config.DriverMySQL {
		return nil, fmt.Errorf("migrations need store driver %q, got %q", config.DriverMySQL, cfg.Store.Driver)
	}
	return cfg, nil
}

func newMigrateUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadMySQLConfig()
			if err != nil {
				return err
			}
			return database.MigrateUp(cfg.Database)
		},
	}
}

func newMigrateDownCommand() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadMySQLConfig()
			if err != nil {
				return err
			}
			return database.MigrateDown(cfg.Database, steps)
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to revert")
	return cmd
}
