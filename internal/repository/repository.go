// Package repository declares the entity store contracts shared by the
// PostgreSQL and SQLite implementations.
package repository

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when a user with the same email already exists.
var ErrEmailTaken = errors.New("email already in use")

// ErrAlreadyRegistered is returned when the (event, user) pair is already registered.
var ErrAlreadyRegistered = errors.New("user already registered for this event")

// ErrCapacityExceeded is returned when an event has no remaining capacity.
var ErrCapacityExceeded = errors.New("event is fully booked")

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// EventStore persists events. Reads populate Event.RegisteredCount.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	// Delete removes the event and returns the registrations removed with
	// it. The registrations are read in the same transaction that holds the
	// event lock, so none can slip in between.
	Delete(ctx context.Context, id string) ([]model.Registration, error)
}

// RegistrationStore persists registrations.
type RegistrationStore interface {
	// CreateWithinCapacity inserts reg only if the pair is not yet registered
	// and the event still has room. Both checks and the insert happen in one
	// transaction holding the event lock. It returns ErrNotFound,
	// ErrAlreadyRegistered or ErrCapacityExceeded when a check fails.
	CreateWithinCapacity(ctx context.Context, reg *model.Registration) error
	Get(ctx context.Context, eventID, userID string) (*model.Registration, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]model.Registration, error)
	// Delete removes the registration for the pair, or returns ErrNotFound.
	Delete(ctx context.Context, eventID, userID string) error
}

// Store groups the entity stores behind one backend.
type Store interface {
	Users() UserStore
	Events() EventStore
	Registrations() RegistrationStore
	Ping(ctx context.Context) error
	Close() error
}
