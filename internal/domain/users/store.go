package users

import (
	"context"
	"errors"
	"fmt"

	"reviewhub/internal/infra/dbx"
	"reviewhub/internal/sentinel"

	"github.com/jackc/pgx/v5"
)

// Store is the read side of the user directory the review core depends on.
type Store interface {
	GetByID(context.Context, int64) (*User, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, userID int64) (*User, error) {
	query := `
        SELECT id, email, first_name, last_name, created_at
        FROM users
        WHERE id = $1
    `
	var u User
	err := r.db.QueryRow(ctx, query, userID).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, sentinel.ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}
