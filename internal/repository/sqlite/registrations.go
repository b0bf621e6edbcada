package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
)

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db *sql.DB
}

// CreateWithinCapacity inserts reg if the event exists, the pair is new and
// a seat is left. The handle is opened with _txlock=immediate, so the
// transaction takes the write lock at BEGIN and concurrent callers serialize.
func (r *RegistrationRepository) CreateWithinCapacity(ctx context.Context, reg *model.Registration) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var capacity int
	err = tx.QueryRowContext(ctx, `SELECT capacity FROM events WHERE id = ?`, reg.EventID).Scan(&capacity)
	if err != nil {
		if notFound(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("read event capacity: %w", err)
	}

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = ? AND user_id = ?`,
		reg.EventID, reg.UserID,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("check duplicate: %w", err)
	}
	if existing > 0 {
		return repository.ErrAlreadyRegistered
	}

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = ?`, reg.EventID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("count registrations: %w", err)
	}
	if count >= capacity {
		return repository.ErrCapacityExceeded
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO registrations (id, event_id, user_id, registered_at, attended)
		 VALUES (?, ?, ?, ?, ?)`,
		reg.ID, reg.EventID, reg.UserID, toMillis(reg.RegisteredAt), reg.Attended,
	)
	if err != nil {
		if isUniqueViolation(err, "registrations.event_id") {
			return repository.ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get returns the registration for the pair or repository.ErrNotFound.
func (r *RegistrationRepository) Get(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx,
		`SELECT id, event_id, user_id, registered_at, attended
		 FROM registrations WHERE event_id = ? AND user_id = ?`,
		eventID, userID,
	))
	if err != nil {
		if notFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

// CountByEvent returns the number of registrations for an event.
func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = ?`, eventID,
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
		 FROM registrations WHERE event_id = ?
		 ORDER BY registered_at ASC, id ASC`,
		eventID,
	)
}

// ListByUser returns all registrations held by a user.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	return r.list(ctx,
		`SELECT id, event_id, user_id, registered_at, attended
		 FROM registrations WHERE user_id = ?
		 ORDER BY registered_at ASC, id ASC`,
		userID,
	)
}

func (r *RegistrationRepository) list(ctx context.Context, query string, arg string) ([]model.Registration, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return scanRegistrations(rows)
}

func scanRegistrations(rows *sql.Rows) ([]model.Registration, error) {
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// Delete removes the registration for the pair.
func (r *RegistrationRepository) Delete(ctx context.Context, eventID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM registrations WHERE event_id = ? AND user_id = ?`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return requireAffected(res)
}

func scanRegistration(row scanner) (*model.Registration, error) {
	var (
		reg          model.Registration
		registeredAt int64
	)
	if err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &registeredAt, &reg.Attended); err != nil {
		return nil, err
	}
	reg.RegisteredAt = fromMillis(registeredAt)
	return &reg, nil
}
