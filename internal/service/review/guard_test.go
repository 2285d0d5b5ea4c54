package review

import (
	"context"
	"testing"
	"time"

	"reviewhub/internal/apperr"
	venuereviews "reviewhub/internal/domain/venuereview"
	"reviewhub/internal/domain/venues"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGuardCanCreateReview(t *testing.T) {
	ctx := context.Background()
	now := day(2024, 3, 1).Add(15 * time.Hour)

	venueStore := venues.NewInMemoryStore()
	reviewStore := venuereviews.NewInMemoryStore()
	venue := venueStore.PutVenue(venues.Venue{Name: "Blue Note"})
	other := venueStore.PutVenue(venues.Venue{Name: "Green Room"})

	weekly := venueStore.PutEvent(venues.Event{VenueID: venue.ID, Name: "Jazz night", StartsOn: day(2024, 1, 1), Recurrence: venues.RecurrenceWeekly, Interval: 1})
	once := venueStore.PutEvent(venues.Event{VenueID: venue.ID, Name: "Gala", StartsOn: day(2024, 1, 1), Recurrence: venues.RecurrenceNone})
	future := venueStore.PutEvent(venues.Event{VenueID: venue.ID, Name: "Spring", StartsOn: day(2024, 3, 2), Recurrence: venues.RecurrenceDaily, Interval: 1})
	today := venueStore.PutEvent(venues.Event{VenueID: venue.ID, Name: "Opening", StartsOn: day(2024, 3, 1), Recurrence: venues.RecurrenceDaily, Interval: 1})
	reviewed := venueStore.PutEvent(venues.Event{VenueID: venue.ID, Name: "Quiz", StartsOn: day(2024, 1, 1), Recurrence: venues.RecurrenceMonthly, Interval: 1})
	// each breaks several rules at once
	elsewhereOnceFuture := venueStore.PutEvent(venues.Event{VenueID: other.ID, Name: "Launch", StartsOn: day(2024, 5, 1), Recurrence: venues.RecurrenceNone})
	onceFuture := venueStore.PutEvent(venues.Event{VenueID: venue.ID, Name: "Finale", StartsOn: day(2024, 5, 1), Recurrence: venues.RecurrenceNone})
	futureReviewed := venueStore.PutEvent(venues.Event{VenueID: venue.ID, Name: "Summer", StartsOn: day(2024, 6, 1), Recurrence: venues.RecurrenceWeekly, Interval: 1})

	for _, eventID := range []int64{reviewed.ID, futureReviewed.ID} {
		require.NoError(t, reviewStore.Create(ctx, &venuereviews.Review{VenueID: venue.ID, EventID: eventID, UserID: 7, Rating: venuereviews.Rating{Service: 5, Ambience: 5, Value: 5, Experience: 5}}))
	}

	guard := NewGuard(venueStore, reviewStore, func() time.Time { return now })

	tests := []struct {
		name           string
		venueID        int64
		eventID        int64
		wantOccurrence int
		wantKind       apperr.Kind
		wantMsg        string
	}{
		{name: "weekly event", venueID: venue.ID, eventID: weekly.ID, wantOccurrence: 9},
		{name: "same day is allowed", venueID: venue.ID, eventID: today.ID, wantOccurrence: 1},
		{name: "unknown event", venueID: venue.ID, eventID: 999, wantKind: apperr.KindNotFound, wantMsg: "event not found"},
		{name: "wrong venue", venueID: other.ID, eventID: weekly.ID, wantKind: apperr.KindValidation, wantMsg: "wrong venue"},
		{name: "non recurring", venueID: venue.ID, eventID: once.ID, wantKind: apperr.KindValidation, wantMsg: "not reviewable"},
		{name: "future", venueID: venue.ID, eventID: future.ID, wantKind: apperr.KindValidation, wantMsg: "event not yet occurred"},
		{name: "duplicate", venueID: venue.ID, eventID: reviewed.ID, wantKind: apperr.KindValidation, wantMsg: "duplicate review"},
		{name: "wrong venue checked first", venueID: venue.ID, eventID: elsewhereOnceFuture.ID, wantKind: apperr.KindValidation, wantMsg: "wrong venue"},
		{name: "non recurring before future", venueID: venue.ID, eventID: onceFuture.ID, wantKind: apperr.KindValidation, wantMsg: "not reviewable"},
		{name: "future before duplicate", venueID: venue.ID, eventID: futureReviewed.ID, wantKind: apperr.KindValidation, wantMsg: "event not yet occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occurrence, err := guard.CanCreateReview(ctx, 7, tt.venueID, tt.eventID)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOccurrence, occurrence)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			assert.Equal(t, tt.wantMsg, apperr.Message(err))
		})
	}
}

func TestGuardAllowsReviewAfterAuthorDelete(t *testing.T) {
	ctx := context.Background()
	venueStore := venues.NewInMemoryStore()
	reviewStore := venuereviews.NewInMemoryStore()
	venue := venueStore.PutVenue(venues.Venue{Name: "Blue Note"})
	event := venueStore.PutEvent(venues.Event{VenueID: venue.ID, StartsOn: day(2024, 1, 1), Recurrence: venues.RecurrenceDaily, Interval: 1})

	rv := &venuereviews.Review{VenueID: venue.ID, EventID: event.ID, UserID: 7}
	require.NoError(t, reviewStore.Create(ctx, rv))
	require.NoError(t, reviewStore.MarkDeletedByAuthor(ctx, rv.ID))

	guard := NewGuard(venueStore, reviewStore, func() time.Time { return day(2024, 1, 3) })
	occurrence, err := guard.CanCreateReview(ctx, 7, venue.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, occurrence)
}

func TestGuardManagerDeletedReviewStillBlocks(t *testing.T) {
	ctx := context.Background()
	venueStore := venues.NewInMemoryStore()
	reviewStore := venuereviews.NewInMemoryStore()
	venue := venueStore.PutVenue(venues.Venue{Name: "Blue Note"})
	event := venueStore.PutEvent(venues.Event{VenueID: venue.ID, StartsOn: day(2024, 1, 1), Recurrence: venues.RecurrenceDaily, Interval: 1})

	rv := &venuereviews.Review{VenueID: venue.ID, EventID: event.ID, UserID: 7}
	require.NoError(t, reviewStore.Create(ctx, rv))
	require.NoError(t, reviewStore.MarkDeletedByManager(ctx, rv.ID))

	guard := NewGuard(venueStore, reviewStore, func() time.Time { return day(2024, 1, 3) })
	_, err := guard.CanCreateReview(ctx, 7, venue.ID, event.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "duplicate review", apperr.Message(err))

	_, err = guard.CanCreateReview(ctx, 8, venue.ID, event.ID)
	assert.NoError(t, err, "other authors are unaffected")
}
