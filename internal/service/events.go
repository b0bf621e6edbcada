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
	"github.com/Shivanand-hulikatti/smartevent/internal/sanitize"
	"github.com/Shivanand-hulikatti/smartevent/internal/validator"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// EventService orchestrates event-related business operations. Only the
// creator of an event or an admin may change or delete it.
type EventService struct {
	store     repository.Store
	publisher notify.Publisher
	validate  *validator.Validator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEventService constructs an EventService. publisher may be nil.
func NewEventService(store repository.Store, publisher notify.Publisher, logger zerolog.Logger) *EventService {
	return &EventService{
		store:     store,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger.With().Str("component", "events").Logger(),
		now:       time.Now,
	}
}

// ─── Read side ──────────────────────────────────────────────────────────────

// ListEvents returns all events ordered by start date.
func (s *EventService) ListEvents(ctx context.Context) (model.Result[[]model.EventView], error) {
	ctx, span := tracer.Start(ctx, "EventService.ListEvents")
	defer span.End()

	events, err := s.store.Events().List(ctx)
	if err != nil {
		return model.Result[[]model.EventView]{}, spanError(span, fmt.Errorf("list events: %w", err))
	}
	views := make([]model.EventView, 0, len(events))
	for i := range events {
		views = append(views, model.NewEventView(&events[i]))
	}
	return model.Ok(views), nil
}

// GetEvent returns a single event.
func (s *EventService) GetEvent(ctx context.Context, id string) (model.Result[model.EventView], error) {
	ctx, span := tracer.Start(ctx, "EventService.GetEvent", trace.WithAttributes(attribute.String("event.id", id)))
	defer span.End()

	event, err := s.store.Events().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return reject[model.EventView](span, model.ReasonEventNotFound), nil
		}
		return model.Result[model.EventView]{}, spanError(span, fmt.Errorf("get event: %w", err))
	}
	return model.Ok(model.NewEventView(event)), nil
}

// ─── Write side ─────────────────────────────────────────────────────────────

// CreateEvent stores a new event owned by requestingUserID.
func (s *EventService) CreateEvent(ctx context.Context, in model.EventInput, requestingUserID string) (model.Result[*model.Event], error) {
	ctx, span := tracer.Start(ctx, "EventService.CreateEvent", trace.WithAttributes(attribute.String("user.id", requestingUserID)))
	defer span.End()

	in = sanitize.EventInput(in)
	if err := s.validate.Struct(in); err != nil {
		metrics.EventsTotal.WithLabelValues("create", outcomeLabel(model.ReasonInvalidRequest)).Inc()
		return invalid[*model.Event](span, err), nil
	}

	if _, err := s.store.Users().GetByID(ctx, requestingUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.EventsTotal.WithLabelValues("create", outcomeLabel(model.ReasonUserNotFound)).Inc()
			return reject[*model.Event](span, model.ReasonUserNotFound), nil
		}
		return model.Result[*model.Event]{}, spanError(span, fmt.Errorf("load user: %w", err))
	}

	event := &model.Event{
		ID:        uuid.NewString(),
		CreatedBy: requestingUserID,
		CreatedAt: s.now().UTC(),
	}
	event.Apply(in)

	if err := s.store.Events().Create(ctx, event); err != nil {
		metrics.EventsTotal.WithLabelValues("create", "error").Inc()
		return model.Result[*model.Event]{}, spanError(span, fmt.Errorf("create event: %w", err))
	}

	metrics.EventsTotal.WithLabelValues("create", "ok").Inc()
	loggerFor(ctx, s.logger, "events").Info().
		Str("event_id", event.ID).
		Str("user_id", requestingUserID).
		Int("capacity", event.Capacity).
		Msg("event created")
	return model.Ok(event), nil
}

// UpdateEvent overwrites the mutable fields of an event. The identity,
// owner and creation time never change.
func (s *EventService) UpdateEvent(ctx context.Context, id string, in model.EventInput, requestingUserID string) (model.Result[*model.Event], error) {
	ctx, span := tracer.Start(ctx, "EventService.UpdateEvent", trace.WithAttributes(
		attribute.String("event.id", id),
		attribute.String("user.id", requestingUserID),
	))
	defer span.End()

	in = sanitize.EventInput(in)
	if err := s.validate.Struct(in); err != nil {
		metrics.EventsTotal.WithLabelValues("update", outcomeLabel(model.ReasonInvalidRequest)).Inc()
		return invalid[*model.Event](span, err), nil
	}

	event, reason, err := s.authorize(ctx, id, requestingUserID)
	if err != nil {
		return model.Result[*model.Event]{}, spanError(span, err)
	}
	if reason != "" {
		metrics.EventsTotal.WithLabelValues("update", outcomeLabel(reason)).Inc()
		return reject[*model.Event](span, reason), nil
	}

	event.Apply(in)
	if err := s.store.Events().Update(ctx, event); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.EventsTotal.WithLabelValues("update", outcomeLabel(model.ReasonEventNotFound)).Inc()
			return reject[*model.Event](span, model.ReasonEventNotFound), nil
		}
		metrics.EventsTotal.WithLabelValues("update", "error").Inc()
		return model.Result[*model.Event]{}, spanError(span, fmt.Errorf("update event: %w", err))
	}

	metrics.EventsTotal.WithLabelValues("update", "ok").Inc()
	loggerFor(ctx, s.logger, "events").Info().
		Str("event_id", id).
		Str("user_id", requestingUserID).
		Msg("event updated")
	return model.Ok(event), nil
}

// DeleteEvent removes an event together with its registrations. Every
// removed registration is announced as cancelled.
func (s *EventService) DeleteEvent(ctx context.Context, id string, requestingUserID string) (model.Result[bool], error) {
	ctx, span := tracer.Start(ctx, "EventService.DeleteEvent", trace.WithAttributes(
		attribute.String("event.id", id),
		attribute.String("user.id", requestingUserID),
	))
	defer span.End()

	event, reason, err := s.authorize(ctx, id, requestingUserID)
	if err != nil {
		return model.Result[bool]{}, spanError(span, err)
	}
	if reason != "" {
		metrics.EventsTotal.WithLabelValues("delete", outcomeLabel(reason)).Inc()
		return reject[bool](span, reason), nil
	}

	regs, err := s.store.Events().Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.EventsTotal.WithLabelValues("delete", outcomeLabel(model.ReasonEventNotFound)).Inc()
			return reject[bool](span, model.ReasonEventNotFound), nil
		}
		metrics.EventsTotal.WithLabelValues("delete", "error").Inc()
		return model.Result[bool]{}, spanError(span, fmt.Errorf("delete event: %w", err))
	}

	metrics.EventsTotal.WithLabelValues("delete", "ok").Inc()
	logger := loggerFor(ctx, s.logger, "events")
	logger.Info().
		Str("event_id", id).
		Str("user_id", requestingUserID).
		Int("registrations_removed", len(regs)).
		Msg("event deleted")

	s.announceCancellations(ctx, logger, event, regs)
	return model.Ok(true), nil
}

// authorize loads the event and the requesting user and checks ownership.
// It returns a non-empty reason when the caller may not modify the event.
// The user's role is read from the store on every call.
func (s *EventService) authorize(ctx context.Context, eventID, userID string) (*model.Event, model.Reason, error) {
	event, err := s.store.Events().GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.ReasonEventNotFound, nil
		}
		return nil, "", fmt.Errorf("load event: %w", err)
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.ReasonUserNotFound, nil
		}
		return nil, "", fmt.Errorf("load user: %w", err)
	}

	if !event.CanBeModifiedBy(user) {
		loggerFor(ctx, s.logger, "events").Warn().
			Str("event_id", eventID).
			Str("user_id", userID).
			Msg("modification denied")
		return nil, model.ReasonNotAuthorized, nil
	}
	return event, "", nil
}

func (s *EventService) announceCancellations(ctx context.Context, logger *zerolog.Logger, event *model.Event, regs []model.Registration) {
	if s.publisher == nil || len(regs) == 0 {
		return
	}
	now := s.now().UTC()
	for _, reg := range regs {
		user, err := s.store.Users().GetByID(ctx, reg.UserID)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", reg.UserID).Msg("skipping cancellation notice")
			continue
		}
		msg := newMessage(notify.TypeRegistrationCancelled, event, user)
		msg.OccurredAt = now
		publish(ctx, s.publisher, logger, msg)
	}
}
