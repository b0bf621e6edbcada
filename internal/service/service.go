// Package service implements the registration and event-ownership policies
// and the identity operations. Business failures come back as a
// model.Result carrying a Reason; a non-nil error always means the store or
// another collaborator failed.
package service

import (
	"context"
	"strings"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/notify"
	"github.com/Shivanand-hulikatti/smartevent/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = telemetry.Tracer("github.com/Shivanand-hulikatti/smartevent/internal/service")

// loggerFor prefers the request-scoped logger (which carries request_id)
// and falls back to the service logger.
func loggerFor(ctx context.Context, fallback zerolog.Logger, component string) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &fallback
	}
	scoped := l.With().Str("component", component).Logger()
	return &scoped
}

// reject marks the span with reason and builds the failed result.
func reject[T any](span trace.Span, reason model.Reason) model.Result[T] {
	span.SetAttributes(attribute.String("smartevent.reason", string(reason)))
	return model.Fail[T](reason)
}

// invalid builds an INVALID_REQUEST result carrying the validation detail.
func invalid[T any](span trace.Span, err error) model.Result[T] {
	res := reject[T](span, model.ReasonInvalidRequest)
	res.Message = err.Error()
	return res
}

// spanError records err on the span and returns it unchanged.
func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func outcomeLabel(r model.Reason) string {
	return strings.ToLower(string(r))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// publish sends msg and only logs on failure; a notification is never
// allowed to undo a committed change.
func publish(ctx context.Context, p notify.Publisher, logger *zerolog.Logger, msg notify.Message) {
	if p == nil {
		return
	}
	if err := p.Publish(context.WithoutCancel(ctx), msg); err != nil {
		logger.Warn().
			Err(err).
			Str("type", msg.Type).
			Str("event_id", msg.EventID).
			Str("user_id", msg.UserID).
			Msg("failed to publish notification")
	}
}

func newMessage(typ string, event *model.Event, user *model.User) notify.Message {
	return notify.Message{
		Type:       typ,
		EventID:    event.ID,
		EventTitle: event.Title,
		EventStart: event.StartDate,
		UserID:     user.ID,
		UserEmail:  user.Email,
		UserName:   user.Name,
	}
}
