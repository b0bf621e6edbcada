package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

// Create inserts u.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, is_admin, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.IsAdmin, toMillis(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return repository.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID returns a single user or repository.ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, is_admin, created_at FROM users WHERE id = ?`, id))
	if err != nil {
		if notFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail looks a user up by email; the column collates NOCASE.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, is_admin, created_at FROM users WHERE email = ?`, email))
	if err != nil {
		if notFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u         model.User
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &createdAt); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}
