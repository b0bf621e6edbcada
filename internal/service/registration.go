package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/metrics"
	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/notify"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RegistrationService enforces who may register for which event and that an
// event never holds more registrations than its capacity.
type RegistrationService struct {
	store     repository.Store
	publisher notify.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRegistrationService constructs a RegistrationService. publisher may be nil.
func NewRegistrationService(store repository.Store, publisher notify.Publisher, logger zerolog.Logger) *RegistrationService {
	return &RegistrationService{
		store:     store,
		publisher: publisher,
		logger:    logger.With().Str("component", "registrations").Logger(),
		now:       time.Now,
	}
}

// RegisterForEvent registers userID for eventID.
//
// Checks run in order: event exists, user exists, pair not yet registered,
// seat available. The first failing check decides the reason. The insert
// itself re-checks the pair and the count under the store's event lock, so a
// concurrent caller that took the last seat between the pre-checks and the
// insert still yields CAPACITY_EXCEEDED.
func (s *RegistrationService) RegisterForEvent(ctx context.Context, eventID, userID string) (model.Result[*model.Registration], error) {
	ctx, span := tracer.Start(ctx, "RegistrationService.RegisterForEvent", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("user.id", userID),
	))
	defer span.End()

	res, event, user, err := s.register(ctx, eventID, userID)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("register", "error").Inc()
		return model.Result[*model.Registration]{}, spanError(span, err)
	}
	if !res.Success {
		metrics.RegistrationsTotal.WithLabelValues("register", outcomeLabel(res.Reason)).Inc()
		return reject[*model.Registration](span, res.Reason), nil
	}

	metrics.RegistrationsTotal.WithLabelValues("register", "created").Inc()
	logger := loggerFor(ctx, s.logger, "registrations")
	logger.Info().
		Str("registration_id", res.Data.ID).
		Str("event_id", eventID).
		Str("user_id", userID).
		Msg("registration created")

	msg := newMessage(notify.TypeRegistrationCreated, event, user)
	msg.OccurredAt = res.Data.RegisteredAt
	publish(ctx, s.publisher, logger, msg)
	return res, nil
}

func (s *RegistrationService) register(ctx context.Context, eventID, userID string) (model.Result[*model.Registration], *model.Event, *model.User, error) {
	type result = model.Result[*model.Registration]

	event, err := s.store.Events().GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Fail[*model.Registration](model.ReasonEventNotFound), nil, nil, nil
		}
		return result{}, nil, nil, fmt.Errorf("load event: %w", err)
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Fail[*model.Registration](model.ReasonUserNotFound), nil, nil, nil
		}
		return result{}, nil, nil, fmt.Errorf("load user: %w", err)
	}

	_, err = s.store.Registrations().Get(ctx, eventID, userID)
	switch {
	case err == nil:
		return model.Fail[*model.Registration](model.ReasonAlreadyRegistered), nil, nil, nil
	case !errors.Is(err, repository.ErrNotFound):
		return result{}, nil, nil, fmt.Errorf("load registration: %w", err)
	}

	event.RegisteredCount, err = s.store.Registrations().CountByEvent(ctx, eventID)
	if err != nil {
		return result{}, nil, nil, fmt.Errorf("count registrations: %w", err)
	}
	if event.IsFull() {
		return model.Fail[*model.Registration](model.ReasonCapacityExceeded), nil, nil, nil
	}

	reg := &model.Registration{
		ID:           uuid.NewString(),
		EventID:      eventID,
		UserID:       userID,
		RegisteredAt: s.now().UTC(),
		Attended:     false,
	}
	if err := s.store.Registrations().CreateWithinCapacity(ctx, reg); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return model.Fail[*model.Registration](model.ReasonEventNotFound), nil, nil, nil
		case errors.Is(err, repository.ErrAlreadyRegistered):
			return model.Fail[*model.Registration](model.ReasonAlreadyRegistered), nil, nil, nil
		case errors.Is(err, repository.ErrCapacityExceeded):
			return model.Fail[*model.Registration](model.ReasonCapacityExceeded), nil, nil, nil
		}
		return result{}, nil, nil, fmt.Errorf("create registration: %w", err)
	}
	return model.Ok(reg), event, user, nil
}

// CancelRegistration removes the registration of userID for eventID.
// Cancelling twice fails the second time with REGISTRATION_NOT_FOUND.
func (s *RegistrationService) CancelRegistration(ctx context.Context, eventID, userID string) (model.Result[bool], error) {
	ctx, span := tracer.Start(ctx, "RegistrationService.CancelRegistration", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("user.id", userID),
	))
	defer span.End()

	res, event, user, err := s.lookup(ctx, eventID, userID)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("cancel", "error").Inc()
		return model.Result[bool]{}, spanError(span, err)
	}
	if !res.Success {
		metrics.RegistrationsTotal.WithLabelValues("cancel", outcomeLabel(res.Reason)).Inc()
		return reject[bool](span, res.Reason), nil
	}

	if err := s.store.Registrations().Delete(ctx, eventID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RegistrationsTotal.WithLabelValues("cancel", outcomeLabel(model.ReasonRegistrationNotFound)).Inc()
			return reject[bool](span, model.ReasonRegistrationNotFound), nil
		}
		metrics.RegistrationsTotal.WithLabelValues("cancel", "error").Inc()
		return model.Result[bool]{}, spanError(span, fmt.Errorf("delete registration: %w", err))
	}

	metrics.RegistrationsTotal.WithLabelValues("cancel", "cancelled").Inc()
	logger := loggerFor(ctx, s.logger, "registrations")
	logger.Info().
		Str("registration_id", res.Data.ID).
		Str("event_id", eventID).
		Str("user_id", userID).
		Msg("registration cancelled")

	msg := newMessage(notify.TypeRegistrationCancelled, event, user)
	msg.OccurredAt = s.now().UTC()
	publish(ctx, s.publisher, logger, msg)
	return model.Ok(true), nil
}

// GetRegistration returns the registration of userID for eventID.
func (s *RegistrationService) GetRegistration(ctx context.Context, eventID, userID string) (model.Result[*model.Registration], error) {
	ctx, span := tracer.Start(ctx, "RegistrationService.GetRegistration", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("user.id", userID),
	))
	defer span.End()

	res, _, _, err := s.lookup(ctx, eventID, userID)
	if err != nil {
		return model.Result[*model.Registration]{}, spanError(span, err)
	}
	if !res.Success {
		return reject[*model.Registration](span, res.Reason), nil
	}
	return res, nil
}

// lookup resolves event, user and registration in that order.
func (s *RegistrationService) lookup(ctx context.Context, eventID, userID string) (model.Result[*model.Registration], *model.Event, *model.User, error) {
	type result = model.Result[*model.Registration]

	event, err := s.store.Events().GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Fail[*model.Registration](model.ReasonEventNotFound), nil, nil, nil
		}
		return result{}, nil, nil, fmt.Errorf("load event: %w", err)
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Fail[*model.Registration](model.ReasonUserNotFound), nil, nil, nil
		}
		return result{}, nil, nil, fmt.Errorf("load user: %w", err)
	}

	reg, err := s.store.Registrations().Get(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Fail[*model.Registration](model.ReasonRegistrationNotFound), nil, nil, nil
		}
		return result{}, nil, nil, fmt.Errorf("load registration: %w", err)
	}
	return model.Ok(reg), event, user, nil
}

// ListRegistrationsForEvent returns the registrations of an existing event,
// oldest first.
func (s *RegistrationService) ListRegistrationsForEvent(ctx context.Context, eventID string) (model.Result[[]model.Registration], error) {
	ctx, span := tracer.Start(ctx, "RegistrationService.ListRegistrationsForEvent",
		trace.WithAttributes(attribute.String("event.id", eventID)))
	defer span.End()

	if _, err := s.store.Events().GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return reject[[]model.Registration](span, model.ReasonEventNotFound), nil
		}
		return model.Result[[]model.Registration]{}, spanError(span, fmt.Errorf("load event: %w", err))
	}

	regs, err := s.store.Registrations().ListByEvent(ctx, eventID)
	if err != nil {
		return model.Result[[]model.Registration]{}, spanError(span, fmt.Errorf("list registrations: %w", err))
	}
	return model.Ok(nonNil(regs)), nil
}

// ListRegistrationsForUser returns the registrations held by an existing
// user, oldest first.
func (s *RegistrationService) ListRegistrationsForUser(ctx context.Context, userID string) (model.Result[[]model.Registration], error) {
	ctx, span := tracer.Start(ctx, "RegistrationService.ListRegistrationsForUser",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return reject[[]model.Registration](span, model.ReasonUserNotFound), nil
		}
		return model.Result[[]model.Registration]{}, spanError(span, fmt.Errorf("load user: %w", err))
	}

	regs, err := s.store.Registrations().ListByUser(ctx, userID)
	if err != nil {
		return model.Result[[]model.Registration]{}, spanError(span, fmt.Errorf("list registrations: %w", err))
	}
	return model.Ok(nonNil(regs)), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
