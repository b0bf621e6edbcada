package postgres

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// CreateWithinCapacity inserts reg inside a transaction that holds a row lock
// on the event.
//
// Two callers racing for the last seat would both pass a plain
// "count < capacity" read before either inserts. SELECT ... FOR UPDATE on the
// event row makes every concurrent registration for that event queue behind
// the lock holder, so the count read below always includes rows committed by
// earlier winners. The unique (event_id, user_id) index is the last line for
// duplicate pairs.
func (r *RegistrationRepository) CreateWithinCapacity(ctx context.Context, reg *model.Registration) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var capacity int
	err = tx.QueryRow(ctx,
		`SELECT capacity FROM events WHERE id = $1 FOR UPDATE`,
		reg.EventID,
	).Scan(&capacity)
	if err != nil {
		if notFound(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	var existing int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND user_id = $2`,
		reg.EventID, reg.UserID,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("check duplicate: %w", err)
	}
	if existing > 0 {
		return repository.ErrAlreadyRegistered
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`,
		reg.EventID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("count registrations: %w", err)
	}
	if count >= capacity {
		return repository.ErrCapacityExceeded
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, event_id, user_id, registered_at, attended)
		 VALUES ($1, $2, $3, $4, $5)`,
		reg.ID, reg.EventID, reg.UserID, reg.RegisteredAt, reg.Attended,
	)
	if err != nil {
		if isUniqueViolation(err, "registrations_event_user_key") {
			return repository.ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get returns the registration for the pair or repository.ErrNotFound.
func (r *RegistrationRepository) Get(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.QueryRow(ctx,
		`SELECT id, event_id, user_id, registered_at, attended
		 FROM registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.RegisteredAt, &reg.Attended)
	if err != nil {
		if notFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &reg, nil
}

// CountByEvent returns the number of registrations for an event.
func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`,
		eventID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// ListByEvent returns all registrations for a given event.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	return r.list(ctx,
		`SELECT id, event_id, user_id, registered_at, attended
		 FROM registrations WHERE event_id = $1
		 ORDER BY registered_at ASC, id ASC`,
		eventID,
	)
}

// ListByUser returns all registrations held by a user.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	return r.list(ctx,
		`SELECT id, event_id, user_id, registered_at, attended
		 FROM registrations WHERE user_id = $1
		 ORDER BY registered_at ASC, id ASC`,
		userID,
	)
}

func (r *RegistrationRepository) list(ctx context.Context, query string, arg string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return collectRegistrations(rows)
}

func collectRegistrations(rows pgx.Rows) ([]model.Registration, error) {
	defer rows.Close()

	regs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Registration, error) {
		var reg model.Registration
		err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.RegisteredAt, &reg.Attended)
		return reg, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	return regs, nil
}

// Delete removes the registration for the pair.
func (r *RegistrationRepository) Delete(ctx context.Context, eventID, userID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
