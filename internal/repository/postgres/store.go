// Package postgres implements the entity stores on PostgreSQL using pgx
// directly (no ORM).
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Store implements repository.Store on a pgx pool.
type Store struct {
	pool          *pgxpool.Pool
	users         *UserRepository
	events        *EventRepository
	registrations *RegistrationRepository
}

var _ repository.Store = (*Store)(nil)

// NewStore constructs a Store. The pool is owned by the Store and closed by Close.
func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres store: pool is nil")
	}
	return &Store{
		pool:          pool,
		users:         &UserRepository{db: pool},
		events:        &EventRepository{db: pool},
		registrations: &RegistrationRepository{db: pool},
	}, nil
}

func (s *Store) Users() repository.UserStore                 { return s.users }
func (s *Store) Events() repository.EventStore               { return s.events }
func (s *Store) Registrations() repository.RegistrationStore { return s.registrations }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
