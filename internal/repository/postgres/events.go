package postgres

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

const selectEvent = `
	SELECT e.id, e.title, e.description, e.location, e.start_date, e.end_date,
	       e.capacity, e.image_url, e.category, e.created_by, e.created_at,
	       (SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id)
	FROM events e`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.StartDate, &e.EndDate,
		&e.Capacity, &e.ImageURL, &e.Category, &e.CreatedBy, &e.CreatedAt,
		&e.RegisteredCount,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, description, location, start_date, end_date,
		                     capacity, image_url, category, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.Title, e.Description, e.Location, e.StartDate, e.EndDate,
		e.Capacity, e.ImageURL, e.Category, e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// List returns all events ordered by start date.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx, selectEvent+` ORDER BY e.start_date ASC, e.created_at ASC`)
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
	e, err := scanEvent(r.db.QueryRow(ctx, selectEvent+` WHERE e.id = $1`, id))
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
	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, location = $4, start_date = $5, end_date = $6,
		     capacity = $7, image_url = $8, category = $9
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Location, e.StartDate, e.EndDate,
		e.Capacity, e.ImageURL, e.Category,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the event. Registrations go with it via ON DELETE CASCADE.
// The event row is locked first, the same lock CreateWithinCapacity takes, so
// the returned registrations are exactly the ones the cascade removes.
func (r *EventRepository) Delete(ctx context.Context, id string) (removed []model.Registration, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if notFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT id, event_id, user_id, registered_at, attended
		 FROM registrations WHERE event_id = $1
		 ORDER BY registered_at ASC, id ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	removed, err = collectRegistrations(rows)
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete event: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return removed, nil
}
