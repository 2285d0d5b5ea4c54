package review

import (
	"context"
	"errors"
	"time"

	"reviewhub/internal/apperr"
	venuereviews "reviewhub/internal/domain/venuereview"
	"reviewhub/internal/domain/venues"
	"reviewhub/internal/sentinel"
)

// Guard decides whether a user may review an event at a venue.
type Guard struct {
	venues  venues.Store
	reviews venuereviews.Store
	now     func() time.Time
}

func NewGuard(venueStore venues.Store, reviewStore venuereviews.Store, now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}
	return &Guard{venues: venueStore, reviews: reviewStore, now: now}
}

// CanCreateReview runs the eligibility checks in order and stops at the first
// failure. On success it returns how many times the event has occurred up to
// and including today.
func (g *Guard) CanCreateReview(ctx context.Context, userID, venueID, eventID int64) (int, error) {
	event, err := g.venues.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, apperr.NotFound("event not found")
		}
		return 0, apperr.Internal(err, "failed to load event")
	}

	if event.VenueID != venueID {
		return 0, apperr.Validation("wrong venue")
	}
	if !event.IsRecurring() {
		return 0, apperr.Validation("not reviewable")
	}

	today := venues.Day(g.now().UTC())
	if venues.Day(event.StartsOn).After(today) {
		return 0, apperr.Validation("event not yet occurred")
	}

	exists, err := g.reviews.HasActiveReview(ctx, userID, eventID)
	if err != nil {
		return 0, apperr.Internal(err, "failed to check existing reviews")
	}
	if exists {
		return 0, apperr.Validation("duplicate review")
	}

	return event.OccurrencesThrough(today), nil
}
