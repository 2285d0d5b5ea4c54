package review

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"reviewhub/internal/apperr"
	"reviewhub/internal/domain/accesscontrol"
	"reviewhub/internal/domain/stewardship"
	"reviewhub/internal/domain/storage"
	"reviewhub/internal/domain/users"
	venuereviews "reviewhub/internal/domain/venuereview"
	"reviewhub/internal/domain/venues"
	"reviewhub/internal/metrics"
	"reviewhub/internal/notifications"
	"reviewhub/internal/params"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type recordingNotifier struct {
	notifications.Nop

	mu         sync.Mutex
	moderation []notifications.ReviewModeration
}

func (r *recordingNotifier) ReviewModerated(_ context.Context, m notifications.ReviewModeration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moderation = append(r.moderation, m)
}

func uniform(score int) Scores {
	return Scores{Service: score, Ambience: score, Value: score, Experience: score}
}

type LifecycleSuite struct {
	suite.Suite

	ctx      context.Context
	mem      *storage.Memory
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	clock    time.Time
	svc      *Lifecycle

	alice   users.User
	bob     users.User
	steward users.User
	admin   users.User
	venue   venues.Venue
	event   venues.Event
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.ctx = context.Background()
	s.mem = storage.NewMemory()
	s.notifier = &recordingNotifier{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.clock = day(2024, 3, 1).Add(10 * time.Hour)

	now := func() time.Time { return s.clock }
	s.mem.Reviews.WithClock(now)
	s.svc = NewLifecycle(s.mem, s.notifier, s.metrics, nil).WithClock(now)

	s.alice = s.mem.Users.Put(users.User{Email: "alice@example.com", FirstName: "Alice"})
	s.bob = s.mem.Users.Put(users.User{Email: "bob@example.com", FirstName: "Bob"})
	s.steward = s.mem.Users.Put(users.User{Email: "sam@example.com", FirstName: "Sam"})
	s.admin = s.mem.Users.Put(users.User{Email: "ada@example.com", FirstName: "Ada"})
	s.Require().NoError(s.mem.AccessControl.AssignRole(s.ctx, s.admin.ID, accesscontrol.RoleAdmin))

	s.venue = s.mem.Venues.PutVenue(venues.Venue{Name: "Blue Note"})
	s.event = s.mem.Venues.PutEvent(venues.Event{
		VenueID:    s.venue.ID,
		Name:       "Jazz night",
		StartsOn:   day(2024, 1, 1),
		Recurrence: venues.RecurrenceWeekly,
		Interval:   1,
	})

	s.Require().NoError(s.mem.Stewardship.Insert(s.ctx, &stewardship.Grant{
		UserID:    s.steward.ID,
		VenueID:   s.venue.ID,
		StartDate: day(2024, 1, 1),
		GrantedBy: s.admin.ID,
	}))
}

func (s *LifecycleSuite) create(user users.User, score int) *venuereviews.Review {
	rv, err := s.svc.Create(s.ctx, CreateInput{
		UserID:  user.ID,
		VenueID: s.venue.ID,
		EventID: s.event.ID,
		Scores:  uniform(score),
		Comment: "great night",
	})
	s.Require().NoError(err)
	return rv
}

func (s *LifecycleSuite) aggregate() float64 {
	avg, err := s.svc.CurrentAggregate(s.ctx, s.venue.ID)
	s.Require().NoError(err)
	return avg
}

func (s *LifecycleSuite) list(projection venuereviews.Projection, requester int64) *Page {
	page, err := s.svc.List(s.ctx, ListQuery{VenueID: s.venue.ID, RequesterID: requester, Projection: projection})
	s.Require().NoError(err)
	return page
}

func (s *LifecycleSuite) TestEndToEndAggregateScenario() {
	low := s.create(s.alice, 6)
	high := s.create(s.bob, 8)
	s.InDelta(7.0, s.aggregate(), 1e-9)

	s.Require().NoError(s.svc.ManagerDelete(s.ctx, low.ID, s.steward.ID))
	s.InDelta(8.0, s.aggregate(), 1e-9)

	s.Require().NoError(s.svc.SetHidden(s.ctx, high.ID, s.steward.ID, true))
	s.InDelta(8.0, s.aggregate(), 1e-9)

	s.Empty(s.list(venuereviews.ProjectionPublic, 0).Reviews)
	stewardView := s.list(venuereviews.ProjectionSteward, s.steward.ID)
	s.Require().Len(stewardView.Reviews, 1)
	s.Equal(high.ID, stewardView.Reviews[0].ID)
	s.Equal(1, stewardView.Total)

	s.Require().Len(s.notifier.moderation, 2)
	s.Equal(notifications.ModerationRemoved, s.notifier.moderation[0].Action)
	s.Equal(notifications.ModerationHidden, s.notifier.moderation[1].Action)
	s.Equal("Blue Note", s.notifier.moderation[1].Venue.Name)
}

func (s *LifecycleSuite) TestCreateStampsOccurrenceAndAuthor() {
	rv := s.create(s.alice, 7)
	s.Equal(9, rv.Occurrence)
	s.InDelta(7.0, rv.Rating.Average, 1e-9)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ReviewTransitions.WithLabelValues("create")))
}

func (s *LifecycleSuite) TestCreateRejectsDuplicate() {
	s.create(s.alice, 7)
	_, err := s.svc.Create(s.ctx, CreateInput{UserID: s.alice.ID, VenueID: s.venue.ID, EventID: s.event.ID, Scores: uniform(5)})
	s.True(apperr.Is(err, apperr.KindValidation))
	s.Equal("duplicate review", apperr.Message(err))
	s.InDelta(7.0, s.aggregate(), 1e-9)
}

func (s *LifecycleSuite) TestCreateValidatesInput() {
	_, err := s.svc.Create(s.ctx, CreateInput{UserID: s.alice.ID, VenueID: s.venue.ID, EventID: s.event.ID, Scores: Scores{Service: 11, Ambience: 5, Value: 5, Experience: 5}})
	s.Equal("scores must be between 1 and 10", apperr.Message(err))

	_, err = s.svc.Create(s.ctx, CreateInput{UserID: s.alice.ID, VenueID: s.venue.ID, EventID: s.event.ID, Scores: Scores{Service: 5, Ambience: 5, Value: 5}})
	s.Equal("scores must be between 1 and 10", apperr.Message(err))

	_, err = s.svc.Create(s.ctx, CreateInput{UserID: s.alice.ID, VenueID: s.venue.ID, EventID: s.event.ID, Scores: uniform(5), Comment: strings.Repeat("é", MaxCommentLength+1)})
	s.True(apperr.Is(err, apperr.KindValidation))
	s.Equal("comment must be at most 2000 characters", apperr.Message(err))

	_, err = s.svc.Create(s.ctx, CreateInput{UserID: s.alice.ID, VenueID: s.venue.ID, EventID: s.event.ID, Scores: uniform(5), Comment: strings.Repeat("é", MaxCommentLength)})
	s.NoError(err, "the limit counts characters, not bytes")
}

func (s *LifecycleSuite) TestCreateUnknownVenue() {
	_, err := s.svc.Create(s.ctx, CreateInput{UserID: s.alice.ID, VenueID: 999, EventID: s.event.ID, Scores: uniform(5)})
	s.True(apperr.Is(err, apperr.KindNotFound))
}

func (s *LifecycleSuite) TestEditWindowBoundary() {
	rv := s.create(s.alice, 6)
	deadline := rv.CreatedAt.Add(EditWindow)

	s.clock = deadline.Add(-time.Nanosecond)
	edited, err := s.svc.Edit(s.ctx, EditInput{ReviewID: rv.ID, AuthorID: s.alice.ID, Scores: uniform(9), Comment: "even better"})
	s.Require().NoError(err)
	s.Equal("even better", edited.Comment)
	s.InDelta(9.0, s.aggregate(), 1e-9)

	s.clock = deadline.Add(time.Nanosecond)
	_, err = s.svc.Edit(s.ctx, EditInput{ReviewID: rv.ID, AuthorID: s.alice.ID, Scores: uniform(2)})
	s.True(apperr.Is(err, apperr.KindEditWindowExpired))
	s.Equal("edit window has passed", apperr.Message(err))
	s.InDelta(9.0, s.aggregate(), 1e-9)
}

func (s *LifecycleSuite) TestEditByAnotherUser() {
	rv := s.create(s.alice, 6)
	_, err := s.svc.Edit(s.ctx, EditInput{ReviewID: rv.ID, AuthorID: s.bob.ID, Scores: uniform(1)})
	s.True(apperr.Is(err, apperr.KindForbidden))
	s.Equal("you can only edit your own reviews", apperr.Message(err))
}

func (s *LifecycleSuite) TestAuthorDelete() {
	rv := s.create(s.alice, 6)
	s.create(s.bob, 8)

	err := s.svc.AuthorDelete(s.ctx, rv.ID, s.bob.ID)
	s.True(apperr.Is(err, apperr.KindForbidden))
	s.Equal("you can only delete your own reviews", apperr.Message(err))

	s.Require().NoError(s.svc.AuthorDelete(s.ctx, rv.ID, s.alice.ID))
	s.InDelta(8.0, s.aggregate(), 1e-9)

	for _, projection := range []venuereviews.Projection{venuereviews.ProjectionPublic, venuereviews.ProjectionSteward} {
		for _, r := range s.list(projection, s.steward.ID).Reviews {
			s.NotEqual(rv.ID, r.ID)
		}
	}
	s.Empty(s.list(venuereviews.ProjectionAuthor, s.alice.ID).Reviews)

	s.True(apperr.Is(s.svc.AuthorDelete(s.ctx, rv.ID, s.alice.ID), apperr.KindNotFound))
	s.True(apperr.Is(s.svc.SetHidden(s.ctx, rv.ID, s.steward.ID, true), apperr.KindNotFound))
	s.True(apperr.Is(s.svc.ManagerDelete(s.ctx, rv.ID, s.steward.ID), apperr.KindNotFound))
	_, err = s.svc.Edit(s.ctx, EditInput{ReviewID: rv.ID, AuthorID: s.alice.ID, Scores: uniform(3)})
	s.True(apperr.Is(err, apperr.KindNotFound))

	again := s.create(s.alice, 4)
	s.NotEqual(rv.ID, again.ID, "an author-deleted review does not block a new one")
}

func (s *LifecycleSuite) TestManagerDeletedReviewIsGone() {
	rv := s.create(s.alice, 6)
	s.Require().NoError(s.svc.ManagerDelete(s.ctx, rv.ID, s.admin.ID))

	s.True(apperr.Is(s.svc.ManagerDelete(s.ctx, rv.ID, s.steward.ID), apperr.KindNotFound))
	s.True(apperr.Is(s.svc.SetHidden(s.ctx, rv.ID, s.steward.ID, false), apperr.KindNotFound))
	s.True(apperr.Is(s.svc.AuthorDelete(s.ctx, rv.ID, s.alice.ID), apperr.KindNotFound))

	s.Zero(s.aggregate())
	s.Len(s.list(venuereviews.ProjectionAuthor, s.alice.ID).Reviews, 1, "authors still see their removed reviews")

	audit, err := s.svc.List(s.ctx, ListQuery{VenueID: s.venue.ID, RequesterID: s.steward.ID, Projection: venuereviews.ProjectionSteward, IncludeDeleted: true})
	s.Require().NoError(err)
	s.Len(audit.Reviews, 1)
	s.Empty(s.list(venuereviews.ProjectionSteward, s.steward.ID).Reviews)
}

func (s *LifecycleSuite) TestHideAndUnhideKeepAggregate() {
	rv := s.create(s.alice, 6)
	before := s.aggregate()

	s.Require().NoError(s.svc.SetHidden(s.ctx, rv.ID, s.steward.ID, true))
	s.Equal(before, s.aggregate())
	s.Empty(s.list(venuereviews.ProjectionPublic, 0).Reviews)
	s.Len(s.list(venuereviews.ProjectionAuthor, s.alice.ID).Reviews, 1)

	s.Require().NoError(s.svc.SetHidden(s.ctx, rv.ID, s.steward.ID, false))
	s.Equal(before, s.aggregate())
	s.Len(s.list(venuereviews.ProjectionPublic, 0).Reviews, 1)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.ReviewTransitions.WithLabelValues("hide")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ReviewTransitions.WithLabelValues("unhide")))
}

func (s *LifecycleSuite) TestModerationRequiresSteward() {
	rv := s.create(s.alice, 6)

	err := s.svc.SetHidden(s.ctx, rv.ID, s.bob.ID, true)
	s.True(apperr.Is(err, apperr.KindForbidden))
	s.True(apperr.Is(s.svc.ManagerDelete(s.ctx, rv.ID, s.bob.ID), apperr.KindForbidden))

	_, err = s.svc.List(s.ctx, ListQuery{VenueID: s.venue.ID, RequesterID: s.bob.ID, Projection: venuereviews.ProjectionSteward})
	s.True(apperr.Is(err, apperr.KindForbidden))

	s.Require().NoError(s.svc.SetHidden(s.ctx, rv.ID, s.admin.ID, true), "admins moderate any venue")
}

func (s *LifecycleSuite) TestRevokedStewardLosesModeration() {
	rv := s.create(s.alice, 6)
	grants, err := s.mem.Stewardship.ListActiveByUser(s.ctx, s.steward.ID, s.clock)
	s.Require().NoError(err)
	s.Require().Len(grants, 1)
	s.Require().NoError(s.mem.Stewardship.Close(s.ctx, grants[0].ID, s.clock.Add(-time.Hour), s.admin.ID))

	err = s.svc.SetHidden(s.ctx, rv.ID, s.steward.ID, true)
	s.True(apperr.Is(err, apperr.KindForbidden))
}

func (s *LifecycleSuite) TestAggregateRecomputeIsIdempotent() {
	s.create(s.alice, 6)
	s.create(s.bob, 9)

	var first, second float64
	s.Require().NoError(s.mem.WithTx(s.ctx, func(stores *storage.Stores) error {
		var err error
		if first, err = s.svc.aggregator.Recompute(s.ctx, stores, s.venue.ID); err != nil {
			return err
		}
		second, err = s.svc.aggregator.Recompute(s.ctx, stores, s.venue.ID)
		return err
	}))
	s.Equal(first, second)
	s.InDelta(7.5, s.aggregate(), 1e-9)
}

func (s *LifecycleSuite) TestListSortingAndPaging() {
	s.create(s.alice, 6)
	s.clock = s.clock.Add(time.Minute)
	s.create(s.bob, 9)
	s.clock = s.clock.Add(time.Minute)
	s.create(s.steward, 3)

	page, err := s.svc.List(s.ctx, ListQuery{VenueID: s.venue.ID, Sort: venuereviews.SortByRating, Order: venuereviews.OrderDesc, Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, page.Total)
	s.Require().Len(page.Reviews, 2)
	s.Equal(s.bob.ID, page.Reviews[0].UserID)
	s.Equal(s.alice.ID, page.Reviews[1].UserID)

	page, err = s.svc.List(s.ctx, ListQuery{VenueID: s.venue.ID, Sort: venuereviews.SortByDate, Order: venuereviews.OrderAsc, Page: 2, Limit: 2})
	s.Require().NoError(err)
	s.Equal(2, page.Page)
	s.Require().Len(page.Reviews, 1)
	s.Equal(s.steward.ID, page.Reviews[0].UserID)

	_, err = s.svc.List(s.ctx, ListQuery{VenueID: s.venue.ID, Sort: "stars"})
	s.True(apperr.Is(err, apperr.KindValidation))

	_, err = s.svc.List(s.ctx, ListQuery{VenueID: s.venue.ID, Projection: "everyone"})
	s.True(apperr.Is(err, apperr.KindValidation))
}

func (s *LifecycleSuite) TestListPageBounds() {
	s.create(s.alice, 6)

	_, err := s.svc.List(s.ctx, ListQuery{VenueID: s.venue.ID, Page: math.MaxInt / 10, Limit: 20})
	s.True(apperr.Is(err, apperr.KindValidation))
	s.Equal("page is out of range", apperr.Message(err))

	last := params.MaxPage(20)
	page, err := s.svc.List(s.ctx, ListQuery{VenueID: s.venue.ID, Page: last, Limit: 20})
	s.Require().NoError(err)
	s.Empty(page.Reviews)
	s.Equal(1, page.Total)
}
