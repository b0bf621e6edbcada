package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/auth"
	"github.com/Shivanand-hulikatti/smartevent/internal/config"
	"github.com/Shivanand-hulikatti/smartevent/internal/service"
	"github.com/spf13/cobra"
)

var tokenEmail string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for an existing user",
	Long: `Issue an access token for an existing user and print it to stdout.

Examples:
  smartevent token --email admin@smartevent.com
  curl -H "Authorization: Bearer $(smartevent token --email admin@smartevent.com)" localhost:8080/api/auth/current`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenEmail == "" {
			return fmt.Errorf("--email is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		logger := config.NewLogger(cfg.Logging)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store, _, err := openStore(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer store.Close()

		issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer, cfg.Auth.Audience)
		users := service.NewUserService(store.Users(), issuer, false, logger)

		res, err := users.Login(ctx, tokenEmail)
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("%s: %s", res.Reason, res.Message)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Data.Token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email of the user to issue a token for")
}
