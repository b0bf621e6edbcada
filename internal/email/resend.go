package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// ResendSender sends mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger zerolog.Logger
}

func NewResendSender(apiKey, from string, logger zerolog.Logger) (*ResendSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if err := validateEmailAddress(from); err != nil {
		return nil, fmt.Errorf("invalid sender email: %w", err)
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger.With().Str("component", "email").Logger(),
	}, nil
}

// Send does not retry rate-limited requests; the consumer requeues instead.
func (s *ResendSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	})
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("remaining", rateLimitErr.Remaining).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return fmt.Errorf("email rate limit exceeded (resets in %s seconds): %w", rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Info().Str("email_id", sent.Id).Str("to", to).Msg("email sent via Resend")
	return nil
}
