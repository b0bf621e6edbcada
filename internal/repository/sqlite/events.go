package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db *sql.DB
}

const selectEvent = `
	SELECT e.id, e.title, e.description, e.location, e.start_date, e.end_date,
	       e.capacity, e.image_url, e.category, e.created_by, e.created_at,
	       (SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id)
	FROM events e`

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*model.Event, error) {
	var (
		e                          model.Event
		startDate, endDate, create int64
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &startDate, &endDate,
		&e.Capacity, &e.ImageURL, &e.Category, &e.CreatedBy, &create,
		&e.RegisteredCount,
	)
	if err != nil {
		return nil, err
	}
	e.StartDate = fromMillis(startDate)
	e.EndDate = fromMillis(endDate)
	e.CreatedAt = fromMillis(create)
	return &e, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, title, description, location, start_date, end_date,
		                     capacity, image_url, category, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, e.Location, toMillis(e.StartDate), toMillis(e.EndDate),
		e.Capacity, e.ImageURL, e.Category, e.CreatedBy, toMillis(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// List returns all events ordered by start date.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, selectEvent+` ORDER BY e.start_date ASC, e.created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or repository.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, selectEvent+` WHERE e.id = ?`, id))
	if err != nil {
		if notFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// Update overwrites the mutable columns of e.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events
		 SET title = ?, description = ?, location = ?, start_date = ?, end_date = ?,
		     capacity = ?, image_url = ?, category = ?
		 WHERE id = ?`,
		e.Title, e.Description, e.Location, toMillis(e.StartDate), toMillis(e.EndDate),
		e.Capacity, e.ImageURL, e.Category, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the event. Registrations go with it via ON DELETE CASCADE.
// The transaction holds the write lock from BEGIN, so the returned
// registrations are exactly the ones the cascade removes.
func (r *EventRepository) Delete(ctx context.Context, id string) (removed []model.Registration, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, event_id, user_id, registered_at, attended
		 FROM registrations WHERE event_id = ?
		 ORDER BY registered_at ASC, id ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	removed, err = scanRegistrations(rows)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("delete event: %w", err)
	}
	if err = requireAffected(res); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return removed, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
