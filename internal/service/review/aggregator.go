package review

import (
	"context"
	"errors"
	"fmt"

	"reviewhub/internal/apperr"
	"reviewhub/internal/domain/storage"
	"reviewhub/internal/metrics"
	"reviewhub/internal/sentinel"
)

// Aggregator maintains the denormalized venue rating. Every recompute reads
// the full live set; nothing is adjusted incrementally.
type Aggregator struct {
	uow     storage.UnitOfWork
	metrics *metrics.Metrics
}

func NewAggregator(uow storage.UnitOfWork, m *metrics.Metrics) *Aggregator {
	return &Aggregator{uow: uow, metrics: m}
}

// Recompute averages the per-review averages of the venue's live reviews
// (hidden ones included) and stores the result through stores, which callers
// bind to the transaction that changed the live set.
func (a *Aggregator) Recompute(ctx context.Context, stores *storage.Stores, venueID int64) (float64, error) {
	ratings, err := stores.Reviews.ListLiveRatings(ctx, venueID)
	if err != nil {
		return 0, fmt.Errorf("list live ratings: %w", err)
	}

	var sum float64
	for _, r := range ratings {
		sum += r.ComputeAverage()
	}
	var avg float64
	if len(ratings) > 0 {
		avg = sum / float64(len(ratings))
	}

	if err := stores.Venues.SetAverageRating(ctx, venueID, avg); err != nil {
		return 0, fmt.Errorf("set average rating: %w", err)
	}
	a.metrics.ObserveRecompute()
	return avg, nil
}

// Current reads the stored aggregate without recomputing it.
func (a *Aggregator) Current(ctx context.Context, venueID int64) (float64, error) {
	avg, err := a.uow.Read().Venues.GetAverageRating(ctx, venueID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, apperr.NotFound("venue not found")
		}
		return 0, apperr.Internal(err, "failed to load venue rating")
	}
	return avg, nil
}
