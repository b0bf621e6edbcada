package main

import (
	"fmt"

	"github.com/Shivanand-hulikatti/smartevent/internal/config"
	"github.com/Shivanand-hulikatti/smartevent/internal/database"
	"github.com/spf13/cobra"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		logger := config.NewLogger(cfg.Logging)
		if err := database.MigrateUp(cfg.Database); err != nil {
			return err
		}
		logger.Info().Str("driver", cfg.Database.Driver).Msg("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateSteps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		logger := config.NewLogger(cfg.Logging)
		if err := database.MigrateDown(cfg.Database, migrateSteps); err != nil {
			return err
		}
		logger.Info().Int("steps", migrateSteps).Msg("migrations rolled back")
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
