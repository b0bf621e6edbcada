package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Shivanand-hulikatti/smartevent/internal/config"
	"github.com/Shivanand-hulikatti/smartevent/internal/database"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository/postgres"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string

	rootCmd = &cobra.Command{
		Use:   "smartevent",
		Short: "SmartEvent - event registration and ticketing service",
		Long: `SmartEvent serves the event registration API.

Users sign up with a name and email, browse events, register for events
with a fixed capacity and download a QR ticket for each registration.
Registration changes are published for the notification worker, which
emails attendees.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (optional, environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

// openStore connects to the configured backend. The pool is nil for SQLite.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (repository.Store, *pgxpool.Pool, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := postgres.NewStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info().Msg("connected to PostgreSQL")
		return store, pool, nil
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		store, err := sqlite.NewStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info().Str("path", cfg.Path).Msg("opened SQLite database")
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
