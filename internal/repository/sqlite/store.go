// Package sqlite implements the entity stores on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store implements repository.Store on a *sql.DB opened with the sqlite driver.
type Store struct {
	db            *sql.DB
	users         *UserRepository
	events        *EventRepository
	registrations *RegistrationRepository
}

var _ repository.Store = (*Store)(nil)

// NewStore wraps db. The handle is owned by the Store and closed by Close.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store: db is nil")
	}
	return &Store{
		db:            db,
		users:         &UserRepository{db: db},
		events:        &EventRepository{db: db},
		registrations: &RegistrationRepository{db: db},
	}, nil
}

func (s *Store) Users() repository.UserStore                 { return s.users }
func (s *Store) Events() repository.EventStore               { return s.events }
func (s *Store) Registrations() repository.RegistrationStore { return s.registrations }

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return column == "" || strings.Contains(err.Error(), column)
		}
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") && strings.Contains(message, column)
}

func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
