// Package email renders and sends registration notices.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/notify"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

// Sender delivers one HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// LogSender logs messages instead of sending them.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "email").Logger()}
}

func (s *LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.logger.Info().Str("to", to).Str("subject", subject).Msg("email disabled, skipping send")
	return nil
}

// Notifier turns registration messages into emails.
type Notifier struct {
	sender    Sender
	templates *template.Template
	logger    zerolog.Logger
}

type noticeData struct {
	UserName    string
	EventTitle  string
	EventStart  string
	CurrentYear int
}

// NewNotifier parses the embedded templates.
func NewNotifier(sender Sender, logger zerolog.Logger) (*Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Notifier{
		sender:    sender,
		templates: tmpl,
		logger:    logger.With().Str("component", "email").Logger(),
	}, nil
}

// Handle is a notify.Handler. Unknown message types are ignored.
func (n *Notifier) Handle(ctx context.Context, msg notify.Message) error {
	var name, subject string
	switch msg.Type {
	case notify.TypeRegistrationCreated:
		name, subject = "registration_created.html", "You're registered: "+msg.EventTitle
	case notify.TypeRegistrationCancelled:
		name, subject = "registration_cancelled.html", "Registration cancelled: "+msg.EventTitle
	default:
		n.logger.Debug().Str("type", msg.Type).Msg("ignoring message type")
		return nil
	}

	if err := validateEmailAddress(msg.UserEmail); err != nil {
		n.logger.Warn().Err(err).Str("user_id", msg.UserID).Msg("skipping notice with bad recipient")
		return nil
	}

	body, err := n.render(name, noticeData{
		UserName:    msg.UserName,
		EventTitle:  msg.EventTitle,
		EventStart:  formatStart(msg.EventStart),
		CurrentYear: time.Now().Year(),
	})
	if err != nil {
		return err
	}
	if err := n.sender.Send(ctx, msg.UserEmail, subject, body); err != nil {
		return fmt.Errorf("send %s notice: %w", msg.Type, err)
	}
	return nil
}

func (n *Notifier) render(name string, data noticeData) (string, error) {
	var buf bytes.Buffer
	if err := n.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatStart(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
}

// validateEmailAddress rejects malformed addresses and header injection.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}
