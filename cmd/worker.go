package main

import (
	"fmt"

	"github.com/Shivanand-hulikatti/smartevent/internal/config"
	"github.com/Shivanand-hulikatti/smartevent/internal/email"
	"github.com/Shivanand-hulikatti/smartevent/internal/metrics"
	"github.com/Shivanand-hulikatti/smartevent/internal/notify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume registration notices and email attendees",
	Long: `Consume registration notices from the AMQP queue and send a confirmation
or cancellation email for each one.

Emails go through Resend when email.enabled is set and RESEND_API_KEY is
present; otherwise they are written to the log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker()
	},
}

func runWorker() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := config.NewLogger(cfg.Logging)
	if cfg.Notifications.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is required for the worker")
	}

	metrics.Init(Version)

	sender, err := newSender(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("email: %w", err)
	}
	notifier, err := email.NewNotifier(sender, logger)
	if err != nil {
		return fmt.Errorf("email: %w", err)
	}

	consumer, err := notify.NewConsumer(
		cfg.Notifications.AMQPURL,
		cfg.Notifications.Exchange,
		cfg.Notifications.Queue,
		notifier.Handle,
		logger,
	)
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	defer consumer.Close()

	ctx, stop := signalContext()
	defer stop()

	logger.Info().Str("queue", cfg.Notifications.Queue).Msg("worker started")
	if err := consumer.Run(ctx); err != nil {
		return err
	}
	logger.Info().Msg("worker stopped")
	return nil
}

func newSender(cfg config.EmailConfig, logger zerolog.Logger) (email.Sender, error) {
	if !cfg.Enabled || cfg.ResendAPIKey == "" {
		logger.Warn().Msg("email delivery disabled; messages are only logged")
		return email.NewLogSender(logger), nil
	}
	return email.NewResendSender(cfg.ResendAPIKey, cfg.From, logger)
}
