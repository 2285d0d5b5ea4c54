// Package review implements the review state machine and keeps each venue's
// rating aggregate in step with its live reviews.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviewhub/internal/apperr"
	"reviewhub/internal/domain/storage"
	venuereviews "reviewhub/internal/domain/venuereview"
	"reviewhub/internal/domain/venues"
	"reviewhub/internal/metrics"
	"reviewhub/internal/notifications"
	"reviewhub/internal/params"
	"reviewhub/internal/sentinel"
	"reviewhub/internal/service/steward"
	"reviewhub/internal/validation"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EditWindow is how long after creation an author may still edit a review.
const EditWindow = 24 * time.Hour

const (
	MaxCommentLength = 2000
	DefaultPageSize  = 20
	MaxPageSize      = 100
)

var tracer = otel.Tracer("reviewhub/internal/service/review")

type Scores struct {
	Service    int `json:"service" validate:"score"`
	Ambience   int `json:"ambience" validate:"score"`
	Value      int `json:"value" validate:"score"`
	Experience int `json:"experience" validate:"score"`
}

func (s Scores) Rating() venuereviews.Rating {
	return venuereviews.Rating{
		Service:    s.Service,
		Ambience:   s.Ambience,
		Value:      s.Value,
		Experience: s.Experience,
	}.WithAverage()
}

type CreateInput struct {
	UserID  int64 `validate:"required"`
	VenueID int64 `validate:"required"`
	EventID int64 `validate:"required"`
	Scores  Scores
	Comment string `validate:"max=2000"`
}

type EditInput struct {
	ReviewID int64 `validate:"required"`
	AuthorID int64 `validate:"required"`
	Scores   Scores
	Comment  string `validate:"max=2000"`
}

type ListQuery struct {
	VenueID     int64
	RequesterID int64
	Projection  venuereviews.Projection
	// IncludeDeleted adds manager-deleted reviews to the steward projection.
	IncludeDeleted bool
	Sort           venuereviews.SortField
	Order          venuereviews.SortOrder
	Page           int
	Limit          int
}

type Page struct {
	Reviews []venuereviews.Review `json:"reviews"`
	Total   int                   `json:"total"`
	Page    int                   `json:"page"`
	Limit   int                   `json:"limit"`
}

// Lifecycle runs every review transition in its own transaction. Transitions
// that change the live set recompute the venue aggregate before commit.
type Lifecycle struct {
	uow        storage.UnitOfWork
	aggregator *Aggregator
	notifier   notifications.Notifier
	metrics    *metrics.Metrics
	logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewLifecycle(uow storage.UnitOfWork, notifier notifications.Notifier, m *metrics.Metrics, logger *zap.SugaredLogger) *Lifecycle {
	if notifier == nil {
		notifier = notifications.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Lifecycle{
		uow:        uow,
		aggregator: NewAggregator(uow, m),
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (l *Lifecycle) WithClock(now func() time.Time) *Lifecycle {
	l.now = now
	return l
}

func (l *Lifecycle) Create(ctx context.Context, in CreateInput) (review *venuereviews.Review, err error) {
	ctx, span := tracer.Start(ctx, "review.Create", trace.WithAttributes(
		attribute.Int64("venue.id", in.VenueID),
		attribute.Int64("event.id", in.EventID),
	))
	defer func() { endSpan(span, err) }()

	if err := validation.Validate.Struct(in); err != nil {
		return nil, inputErr(err)
	}

	err = l.uow.WithTx(ctx, func(stores *storage.Stores) error {
		if _, err := loadVenue(ctx, stores, in.VenueID); err != nil {
			return err
		}

		occurrence, err := NewGuard(stores.Venues, stores.Reviews, l.now).CanCreateReview(ctx, in.UserID, in.VenueID, in.EventID)
		if err != nil {
			return err
		}

		created := &venuereviews.Review{
			VenueID:    in.VenueID,
			EventID:    in.EventID,
			UserID:     in.UserID,
			Occurrence: occurrence,
			Comment:    in.Comment,
			Rating:     in.Scores.Rating(),
		}
		if err := stores.Reviews.Create(ctx, created); err != nil {
			return apperr.Internal(err, "failed to create review")
		}
		if _, err := l.aggregator.Recompute(ctx, stores, in.VenueID); err != nil {
			return apperr.Internal(err, "failed to update venue rating")
		}

		review, err = stores.Reviews.GetByID(ctx, created.ID)
		if err != nil {
			return apperr.Internal(err, "failed to load review")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.ObserveReviewTransition("create")
	l.logger.Infow("review created", "review_id", review.ID, "venue_id", review.VenueID, "user_id", review.UserID, "occurrence", review.Occurrence)
	return review, nil
}

// Edit replaces the scores and comment of the author's own review while the
// edit window is open.
func (l *Lifecycle) Edit(ctx context.Context, in EditInput) (review *venuereviews.Review, err error) {
	ctx, span := tracer.Start(ctx, "review.Edit", trace.WithAttributes(attribute.Int64("review.id", in.ReviewID)))
	defer func() { endSpan(span, err) }()

	if err := validation.Validate.Struct(in); err != nil {
		return nil, inputErr(err)
	}

	err = l.uow.WithTx(ctx, func(stores *storage.Stores) error {
		current, err := loadLive(ctx, stores, in.ReviewID)
		if err != nil {
			return err
		}
		if current.UserID != in.AuthorID {
			return apperr.Forbidden("you can only edit your own reviews")
		}
		if l.now().After(current.CreatedAt.Add(EditWindow)) {
			return apperr.EditWindowExpired("edit window has passed")
		}

		if err := stores.Reviews.UpdateContent(ctx, current.ID, in.Scores.Rating(), in.Comment); err != nil {
			return apperr.Internal(err, "failed to update review")
		}
		if _, err := l.aggregator.Recompute(ctx, stores, current.VenueID); err != nil {
			return apperr.Internal(err, "failed to update venue rating")
		}

		review, err = stores.Reviews.GetByID(ctx, current.ID)
		if err != nil {
			return apperr.Internal(err, "failed to load review")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.ObserveReviewTransition("edit")
	l.logger.Infow("review edited", "review_id", review.ID, "venue_id", review.VenueID)
	return review, nil
}

func (l *Lifecycle) AuthorDelete(ctx context.Context, reviewID, authorID int64) (err error) {
	ctx, span := tracer.Start(ctx, "review.AuthorDelete", trace.WithAttributes(attribute.Int64("review.id", reviewID)))
	defer func() { endSpan(span, err) }()

	var venueID int64
	err = l.uow.WithTx(ctx, func(stores *storage.Stores) error {
		current, err := loadLive(ctx, stores, reviewID)
		if err != nil {
			return err
		}
		if current.UserID != authorID {
			return apperr.Forbidden("you can only delete your own reviews")
		}
		venueID = current.VenueID

		if err := stores.Reviews.MarkDeletedByAuthor(ctx, reviewID); err != nil {
			return apperr.Internal(err, "failed to delete review")
		}
		if _, err := l.aggregator.Recompute(ctx, stores, venueID); err != nil {
			return apperr.Internal(err, "failed to update venue rating")
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.metrics.ObserveReviewTransition("author_delete")
	l.logger.Infow("review deleted by author", "review_id", reviewID, "venue_id", venueID)
	return nil
}

// SetHidden changes only the review's visibility; the aggregate keeps
// counting hidden reviews.
func (l *Lifecycle) SetHidden(ctx context.Context, reviewID, stewardID int64, hidden bool) (err error) {
	ctx, span := tracer.Start(ctx, "review.SetHidden", trace.WithAttributes(
		attribute.Int64("review.id", reviewID),
		attribute.Bool("review.hidden", hidden),
	))
	defer func() { endSpan(span, err) }()

	var moderation notifications.ReviewModeration
	err = l.uow.WithTx(ctx, func(stores *storage.Stores) error {
		current, err := loadLive(ctx, stores, reviewID)
		if err != nil {
			return err
		}
		if err := l.requireSteward(ctx, stores, stewardID, current.VenueID); err != nil {
			return err
		}
		venue, err := loadVenue(ctx, stores, current.VenueID)
		if err != nil {
			return err
		}

		if err := stores.Reviews.SetHidden(ctx, reviewID, hidden); err != nil {
			return apperr.Internal(err, "failed to update review visibility")
		}

		current.HiddenByManager = hidden
		moderation = notifications.ReviewModeration{Review: *current, Venue: *venue, Action: notifications.ModerationUnhidden}
		if hidden {
			moderation.Action = notifications.ModerationHidden
		}
		return nil
	})
	if err != nil {
		return err
	}

	transition := "unhide"
	if hidden {
		transition = "hide"
	}
	l.metrics.ObserveReviewTransition(transition)
	l.logger.Infow("review visibility changed", "review_id", reviewID, "hidden", hidden, "steward_id", stewardID)
	l.notifier.ReviewModerated(ctx, moderation)
	return nil
}

func (l *Lifecycle) ManagerDelete(ctx context.Context, reviewID, stewardID int64) (err error) {
	ctx, span := tracer.Start(ctx, "review.ManagerDelete", trace.WithAttributes(attribute.Int64("review.id", reviewID)))
	defer func() { endSpan(span, err) }()

	var moderation notifications.ReviewModeration
	err = l.uow.WithTx(ctx, func(stores *storage.Stores) error {
		current, err := loadLive(ctx, stores, reviewID)
		if err != nil {
			return err
		}
		if err := l.requireSteward(ctx, stores, stewardID, current.VenueID); err != nil {
			return err
		}
		venue, err := loadVenue(ctx, stores, current.VenueID)
		if err != nil {
			return err
		}

		if err := stores.Reviews.MarkDeletedByManager(ctx, reviewID); err != nil {
			return apperr.Internal(err, "failed to remove review")
		}
		if _, err := l.aggregator.Recompute(ctx, stores, current.VenueID); err != nil {
			return apperr.Internal(err, "failed to update venue rating")
		}

		current.DeletedByManager = true
		moderation = notifications.ReviewModeration{Review: *current, Venue: *venue, Action: notifications.ModerationRemoved}
		return nil
	})
	if err != nil {
		return err
	}

	l.metrics.ObserveReviewTransition("manager_delete")
	l.logger.Infow("review removed by manager", "review_id", reviewID, "steward_id", stewardID)
	l.notifier.ReviewModerated(ctx, moderation)
	return nil
}

// List returns one page of the venue's reviews as seen by the requested
// audience. The steward projection is limited to admins and current stewards.
func (l *Lifecycle) List(ctx context.Context, q ListQuery) (*Page, error) {
	filter, err := l.listFilter(ctx, q)
	if err != nil {
		return nil, err
	}

	stores := l.uow.Read()
	var (
		reviews []venuereviews.Review
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reviews, err = stores.Reviews.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = stores.Reviews.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err, "failed to list reviews")
	}

	if reviews == nil {
		reviews = []venuereviews.Review{}
	}
	return &Page{
		Reviews: reviews,
		Total:   total,
		Page:    filter.Offset/filter.Limit + 1,
		Limit:   filter.Limit,
	}, nil
}

// CurrentAggregate is the venue's stored rating.
func (l *Lifecycle) CurrentAggregate(ctx context.Context, venueID int64) (float64, error) {
	return l.aggregator.Current(ctx, venueID)
}

func (l *Lifecycle) listFilter(ctx context.Context, q ListQuery) (venuereviews.ListFilter, error) {
	if q.Projection == "" {
		q.Projection = venuereviews.ProjectionPublic
	}
	if !q.Projection.Valid() {
		return venuereviews.ListFilter{}, apperr.Validation("view must be one of public, author, steward")
	}
	switch q.Sort {
	case "":
		q.Sort = venuereviews.SortByDate
	case venuereviews.SortByDate, venuereviews.SortByRating:
	default:
		return venuereviews.ListFilter{}, apperr.Validation("sort must be one of date, rating")
	}
	switch q.Order {
	case "":
		q.Order = venuereviews.OrderDesc
	case venuereviews.OrderAsc, venuereviews.OrderDesc:
	default:
		return venuereviews.ListFilter{}, apperr.Validation("order must be one of asc, desc")
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.Page > params.MaxPage(q.Limit) {
		return venuereviews.ListFilter{}, apperr.Validation("page is out of range")
	}

	stores := l.uow.Read()
	if _, err := loadVenue(ctx, stores, q.VenueID); err != nil {
		return venuereviews.ListFilter{}, err
	}

	switch q.Projection {
	case venuereviews.ProjectionAuthor:
		if q.RequesterID == 0 {
			return venuereviews.ListFilter{}, apperr.Forbidden("sign in to view your own reviews")
		}
	case venuereviews.ProjectionSteward:
		ok, err := l.canAdminister(ctx, stores, q.RequesterID, q.VenueID)
		if err != nil {
			return venuereviews.ListFilter{}, err
		}
		if !ok {
			return venuereviews.ListFilter{}, apperr.Forbidden("only venue managers can view all reviews")
		}
	}

	return venuereviews.ListFilter{
		VenueID:               q.VenueID,
		Projection:            q.Projection,
		AuthorID:              q.RequesterID,
		IncludeManagerDeleted: q.Projection == venuereviews.ProjectionSteward && q.IncludeDeleted,
		Sort:                  q.Sort,
		Order:                 q.Order,
		Limit:                 q.Limit,
		Offset:                (q.Page - 1) * q.Limit,
	}, nil
}

func (l *Lifecycle) requireSteward(ctx context.Context, stores *storage.Stores, userID, venueID int64) error {
	ok, err := l.canAdminister(ctx, stores, userID, venueID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("only venue managers can moderate reviews")
	}
	return nil
}

func (l *Lifecycle) canAdminister(ctx context.Context, stores *storage.Stores, userID, venueID int64) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	oracle := steward.NewOracle(steward.NewLedger(stores.Stewardship))
	ok, err := oracle.CanAdminister(ctx, stores.AccessControl, userID, venueID, l.now().UTC())
	if err != nil {
		return false, apperr.Internal(err, "failed to check permissions")
	}
	return ok, nil
}

// loadLive returns the review unless it is missing or removed by anyone.
func loadLive(ctx context.Context, stores *storage.Stores, reviewID int64) (*venuereviews.Review, error) {
	review, err := stores.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, apperr.NotFound("review not found")
		}
		return nil, apperr.Internal(err, "failed to load review")
	}
	if !review.IsLive() {
		return nil, apperr.NotFound("review not found")
	}
	return review, nil
}

func loadVenue(ctx context.Context, stores *storage.Stores, venueID int64) (*venues.Venue, error) {
	venue, err := stores.Venues.GetVenueByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, apperr.NotFound("venue not found")
		}
		return nil, apperr.Internal(err, "failed to load venue")
	}
	return venue, nil
}

func inputErr(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(err, apperr.KindValidation, "invalid request")
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Service", "Ambience", "Value", "Experience":
		return apperr.Validation(fmt.Sprintf("scores must be between %d and %d", venuereviews.MinScore, venuereviews.MaxScore))
	case "Comment":
		return apperr.Validation(fmt.Sprintf("comment must be at most %d characters", MaxCommentLength))
	default:
		return apperr.Validation(strings.ToLower(fe.Field()) + " is required")
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.KindOf(err).String())
	}
	span.End()
}
