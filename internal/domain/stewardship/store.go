package stewardship

import (
	"context"
	"fmt"
	"time"

	"reviewhub/internal/infra/dbx"
	"reviewhub/internal/sentinel"

	"github.com/jackc/pgx/v5"
)

type Store interface {
	Insert(ctx context.Context, g *Grant) error
	// Close sets the end of an open grant. It never touches a grant whose end
	// is already set and reports sentinel.ErrNotFound in that case.
	Close(ctx context.Context, grantID int64, end time.Time, revokedBy int64) error
	ListActiveByVenue(ctx context.Context, venueID int64, asOf time.Time) ([]Grant, error)
	ListActiveByUser(ctx context.Context, userID int64, asOf time.Time) ([]Grant, error)
	ListByVenue(ctx context.Context, venueID int64) ([]Grant, error)
	ListByUser(ctx context.Context, userID int64) ([]Grant, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

const grantColumns = `id, user_id, venue_id, start_date, end_date, granted_by, revoked_by, created_at`

func (r *Repository) Insert(ctx context.Context, g *Grant) error {
	query := `
        INSERT INTO steward_grants (user_id, venue_id, start_date, granted_by)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	return r.db.QueryRow(ctx, query, g.UserID, g.VenueID, g.StartDate, g.GrantedBy).Scan(&g.ID, &g.CreatedAt)
}

func (r *Repository) Close(ctx context.Context, grantID int64, end time.Time, revokedBy int64) error {
	query := `
        UPDATE steward_grants
        SET end_date = $2, revoked_by = $3
        WHERE id = $1 AND end_date IS NULL
    `
	tag, err := r.db.Exec(ctx, query, grantID, end, revokedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("open grant %d: %w", grantID, sentinel.ErrNotFound)
	}
	return nil
}

func (r *Repository) ListActiveByVenue(ctx context.Context, venueID int64, asOf time.Time) ([]Grant, error) {
	query := `
        SELECT ` + grantColumns + `
        FROM steward_grants
        WHERE venue_id = $1
          AND start_date <= $2
          AND (end_date IS NULL OR end_date > $2)
    `
	return r.list(ctx, query, venueID, asOf)
}

func (r *Repository) ListActiveByUser(ctx context.Context, userID int64, asOf time.Time) ([]Grant, error) {
	query := `
        SELECT ` + grantColumns + `
        FROM steward_grants
        WHERE user_id = $1
          AND start_date <= $2
          AND (end_date IS NULL OR end_date > $2)
    `
	return r.list(ctx, query, userID, asOf)
}

// ListByVenue returns the full grant history of a venue, newest first.
func (r *Repository) ListByVenue(ctx context.Context, venueID int64) ([]Grant, error) {
	query := `
        SELECT ` + grantColumns + `
        FROM steward_grants
        WHERE venue_id = $1
        ORDER BY start_date DESC, id DESC
    `
	return r.list(ctx, query, venueID)
}

// ListByUser returns every grant ever recorded for a user, oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Grant, error) {
	query := `
        SELECT ` + grantColumns + `
        FROM steward_grants
        WHERE user_id = $1
        ORDER BY start_date, id
    `
	return r.list(ctx, query, userID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Grant, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	grants, err := pgx.CollectRows(rows, scanGrant)
	if err != nil {
		return nil, fmt.Errorf("scan grants: %w", err)
	}
	return grants, nil
}

func scanGrant(row pgx.CollectableRow) (Grant, error) {
	var g Grant
	err := row.Scan(&g.ID, &g.UserID, &g.VenueID, &g.StartDate, &g.EndDate, &g.GrantedBy, &g.RevokedBy, &g.CreatedAt)
	return g, err
}
