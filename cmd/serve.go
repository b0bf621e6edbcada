package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/auth"
	"github.com/Shivanand-hulikatti/smartevent/internal/config"
	"github.com/Shivanand-hulikatti/smartevent/internal/database"
	"github.com/Shivanand-hulikatti/smartevent/internal/handler"
	"github.com/Shivanand-hulikatti/smartevent/internal/metrics"
	"github.com/Shivanand-hulikatti/smartevent/internal/notify"
	"github.com/Shivanand-hulikatti/smartevent/internal/service"
	"github.com/Shivanand-hulikatti/smartevent/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server.

The server will:
- Load configuration from --config and environment variables
- Apply schema migrations when auto_migrate is set
- Make sure the bootstrap admin account exists
- Publish registration notices to AMQP when AMQP_URL is set
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  smartevent serve
  smartevent serve --port 9090 --log-level debug
  DATABASE_DRIVER=sqlite DATABASE_PATH=dev.db smartevent serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting smartevent")

	ctx, stop := signalContext()
	defer stop()

	metrics.Init(Version)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(cfg.Database); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	}

	store, pool, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	publisher, err := newPublisher(cfg.Notifications, logger)
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	defer publisher.Close()

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer, cfg.Auth.Audience)
	users := service.NewUserService(store.Users(), issuer, cfg.Auth.AllowAdminSignup, logger)

	bootstrapAdmin(ctx, users, cfg.AdminBootstrap, logger)

	router := handler.NewRouter(handler.Deps{
		Users:          users,
		Events:         service.NewEventService(store, publisher, logger),
		Registrations:  service.NewRegistrationService(store, publisher, logger),
		Tokens:         issuer,
		Store:          store,
		LoginLimiter:   handler.NewRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)

	if pool != nil {
		collector := metrics.NewDBCollector(pool)
		g.Go(func() error {
			collector.Run(gctx, 15*time.Second)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newPublisher returns an AMQP publisher when a broker is configured and a
// log-only publisher otherwise.
func newPublisher(cfg config.NotificationsConfig, logger zerolog.Logger) (notify.Publisher, error) {
	if cfg.AMQPURL == "" {
		logger.Warn().Msg("AMQP_URL not set; registration notices are only logged")
		return notify.NewLogPublisher(logger), nil
	}
	p, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange, logger)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("exchange", cfg.Exchange).Msg("publishing registration notices to AMQP")
	return p, nil
}

func bootstrapAdmin(ctx context.Context, users *service.UserService, cfg config.AdminBootstrapConfig, logger zerolog.Logger) {
	if cfg.Email == "" {
		logger.Warn().Msg("ADMIN_EMAIL not set; skipping admin bootstrap")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	admin, err := users.EnsureAdmin(ctx, cfg.Name, cfg.Email)
	if err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
		return
	}
	logger.Info().Str("user_id", admin.ID).Str("email", admin.Email).Msg("admin account ready")
}
