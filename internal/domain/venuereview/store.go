package venuereviews

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"reviewhub/internal/infra/dbx"
	"reviewhub/internal/sentinel"

	"github.com/jackc/pgx/v5"
)

type Store interface {
	Create(ctx context.Context, review *Review) error
	GetByID(ctx context.Context, reviewID int64) (*Review, error)
	UpdateContent(ctx context.Context, reviewID int64, rating Rating, comment string) error
	SetHidden(ctx context.Context, reviewID int64, hidden bool) error
	MarkDeletedByAuthor(ctx context.Context, reviewID int64) error
	MarkDeletedByManager(ctx context.Context, reviewID int64) error
	HasActiveReview(ctx context.Context, userID, eventID int64) (bool, error)
	ListLiveRatings(ctx context.Context, venueID int64) ([]Rating, error)
	List(ctx context.Context, filter ListFilter) ([]Review, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

// Create inserts the review and its rating. Callers run it inside a
// transaction so both rows land together.
func (r *Repository) Create(ctx context.Context, review *Review) error {
	query := `
        INSERT INTO reviews (venue_id, event_id, user_id, occurrence, comment)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		review.VenueID,
		review.EventID,
		review.UserID,
		review.Occurrence,
		review.Comment,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	review.Rating = review.Rating.WithAverage()
	ratingQuery := `
        INSERT INTO review_ratings (review_id, service, ambience, value, experience, average)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err = r.db.Exec(ctx, ratingQuery,
		review.ID,
		review.Rating.Service,
		review.Rating.Ambience,
		review.Rating.Value,
		review.Rating.Experience,
		review.Rating.Average,
	)
	if err != nil {
		return fmt.Errorf("insert review rating: %w", err)
	}
	return nil
}

const reviewColumns = `
        r.id, r.venue_id, r.event_id, r.user_id, r.occurrence, r.comment,
        rr.service, rr.ambience, rr.value, rr.experience, rr.average,
        r.hidden_by_manager, r.deleted_by_author, r.deleted_by_manager,
        r.created_at, r.updated_at, u.first_name`

const reviewJoins = `
        FROM reviews r
        JOIN review_ratings rr ON rr.review_id = r.id
        JOIN users u ON u.id = r.user_id`

func (r *Repository) GetByID(ctx context.Context, reviewID int64) (*Review, error) {
	query := `SELECT ` + reviewColumns + reviewJoins + ` WHERE r.id = $1`
	rows, err := r.db.Query(ctx, query, reviewID)
	if err != nil {
		return nil, err
	}
	review, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("review %d: %w", reviewID, sentinel.ErrNotFound)
		}
		return nil, err
	}
	return &review, nil
}

func (r *Repository) UpdateContent(ctx context.Context, reviewID int64, rating Rating, comment string) error {
	rating = rating.WithAverage()
	ratingQuery := `
        UPDATE review_ratings
        SET service = $2, ambience = $3, value = $4, experience = $5, average = $6
        WHERE review_id = $1
    `
	tag, err := r.db.Exec(ctx, ratingQuery, reviewID,
		rating.Service, rating.Ambience, rating.Value, rating.Experience, rating.Average)
	if err != nil {
		return fmt.Errorf("update review rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("review %d: %w", reviewID, sentinel.ErrNotFound)
	}

	_, err = r.db.Exec(ctx, `UPDATE reviews SET comment = $2, updated_at = now() WHERE id = $1`, reviewID, comment)
	return err
}

func (r *Repository) SetHidden(ctx context.Context, reviewID int64, hidden bool) error {
	return r.setFlag(ctx, reviewID, "hidden_by_manager", hidden)
}

func (r *Repository) MarkDeletedByAuthor(ctx context.Context, reviewID int64) error {
	return r.setFlag(ctx, reviewID, "deleted_by_author", true)
}

func (r *Repository) MarkDeletedByManager(ctx context.Context, reviewID int64) error {
	return r.setFlag(ctx, reviewID, "deleted_by_manager", true)
}

// setFlag only accepts the three known column names.
func (r *Repository) setFlag(ctx context.Context, reviewID int64, column string, value bool) error {
	query := `UPDATE reviews SET ` + column + ` = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, reviewID, value)
	if err != nil {
		return fmt.Errorf("set %s on review %d: %w", column, reviewID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("review %d: %w", reviewID, sentinel.ErrNotFound)
	}
	return nil
}

// HasActiveReview returns true if the user already has a review for this
// event that they have not deleted themselves.
func (r *Repository) HasActiveReview(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	query := `
        SELECT EXISTS (
          SELECT 1 FROM reviews
          WHERE user_id = $1 AND event_id = $2 AND NOT deleted_by_author
        )
    `
	err := r.db.QueryRow(ctx, query, userID, eventID).Scan(&exists)
	return exists, err
}

func (r *Repository) ListLiveRatings(ctx context.Context, venueID int64) ([]Rating, error) {
	query := `
        SELECT rr.service, rr.ambience, rr.value, rr.experience, rr.average
        FROM reviews r
        JOIN review_ratings rr ON rr.review_id = r.id
        WHERE r.venue_id = $1
          AND NOT r.deleted_by_author
          AND NOT r.deleted_by_manager
    `
	rows, err := r.db.Query(ctx, query, venueID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Rating, error) {
		var rt Rating
		err := row.Scan(&rt.Service, &rt.Ambience, &rt.Value, &rt.Experience, &rt.Average)
		return rt, err
	})
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Review, error) {
	where, args := whereClause(filter)
	query := `SELECT ` + reviewColumns + reviewJoins + where + orderClause(filter)
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	reviews, err := pgx.CollectRows(rows, scanReview)
	if err != nil {
		return nil, fmt.Errorf("scan reviews: %w", err)
	}
	return reviews, nil
}

func (r *Repository) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := whereClause(filter)
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews r`+where, args...).Scan(&total)
	return total, err
}

func whereClause(f ListFilter) (string, []any) {
	conds := []string{"r.venue_id = $1", "NOT r.deleted_by_author"}
	args := []any{f.VenueID}

	switch f.Projection {
	case ProjectionPublic:
		conds = append(conds, "NOT r.deleted_by_manager", "NOT r.hidden_by_manager")
	case ProjectionAuthor:
		args = append(args, f.AuthorID)
		conds = append(conds, "r.user_id = $"+strconv.Itoa(len(args)))
	case ProjectionSteward:
		if !f.IncludeManagerDeleted {
			conds = append(conds, "NOT r.deleted_by_manager")
		}
	default:
		conds = append(conds, "false")
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(f ListFilter) string {
	column := "r.created_at"
	if f.Sort == SortByRating {
		column = "rr.average"
	}
	dir := "DESC"
	if f.Order == OrderAsc {
		dir = "ASC"
	}
	return " ORDER BY " + column + " " + dir + ", r.id " + dir
}

func scanReview(row pgx.CollectableRow) (Review, error) {
	var rv Review
	err := row.Scan(
		&rv.ID, &rv.VenueID, &rv.EventID, &rv.UserID, &rv.Occurrence, &rv.Comment,
		&rv.Rating.Service, &rv.Rating.Ambience, &rv.Rating.Value, &rv.Rating.Experience, &rv.Rating.Average,
		&rv.HiddenByManager, &rv.DeletedByAuthor, &rv.DeletedByManager,
		&rv.CreatedAt, &rv.UpdatedAt, &rv.UserName,
	)
	return rv, err
}
