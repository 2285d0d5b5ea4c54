package venues

import (
	"context"
	"errors"
	"fmt"

	"reviewhub/internal/infra/dbx"
	"reviewhub/internal/sentinel"

	"github.com/jackc/pgx/v5"
)

type Store interface {
	GetVenueByID(ctx context.Context, venueID int64) (*Venue, error)
	GetEventByID(ctx context.Context, eventID int64) (*Event, error)
	SetAverageRating(ctx context.Context, venueID int64, average float64) error
	GetAverageRating(ctx context.Context, venueID int64) (float64, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetVenueByID(ctx context.Context, venueID int64) (*Venue, error) {
	query := `
        SELECT id, name, address, average_rating, created_at, updated_at
        FROM venues
        WHERE id = $1
    `
	var v Venue
	err := r.db.QueryRow(ctx, query, venueID).Scan(
		&v.ID, &v.Name, &v.Address, &v.AverageRating, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("venue %d: %w", venueID, sentinel.ErrNotFound)
		}
		return nil, err
	}
	return &v, nil
}

func (r *Repository) GetEventByID(ctx context.Context, eventID int64) (*Event, error) {
	query := `
        SELECT id, venue_id, name, starts_on, recurrence, recurrence_interval, ends_on
        FROM events
        WHERE id = $1
    `
	var (
		e          Event
		recurrence string
	)
	err := r.db.QueryRow(ctx, query, eventID).Scan(
		&e.ID, &e.VenueID, &e.Name, &e.StartsOn, &recurrence, &e.Interval, &e.EndsOn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event %d: %w", eventID, sentinel.ErrNotFound)
		}
		return nil, err
	}
	e.Recurrence = Recurrence(recurrence)
	return &e, nil
}

func (r *Repository) SetAverageRating(ctx context.Context, venueID int64, average float64) error {
	query := `UPDATE venues SET average_rating = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, venueID, average)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("venue %d: %w", venueID, sentinel.ErrNotFound)
	}
	return nil
}

func (r *Repository) GetAverageRating(ctx context.Context, venueID int64) (float64, error) {
	var average float64
	err := r.db.QueryRow(ctx, `SELECT average_rating FROM venues WHERE id = $1`, venueID).Scan(&average)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("venue %d: %w", venueID, sentinel.ErrNotFound)
		}
		return 0, err
	}
	return average, nil
}
