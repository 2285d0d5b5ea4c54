package steward

import (
	"context"
	"errors"
	"strings"
	"time"

	"reviewhub/internal/apperr"
	"reviewhub/internal/domain/accesscontrol"
	"reviewhub/internal/domain/stewardship"
	"reviewhub/internal/domain/storage"
	"reviewhub/internal/metrics"
	"reviewhub/internal/notifications"
	"reviewhub/internal/sentinel"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("reviewhub/internal/service/steward")

// Service assigns and revokes venue stewards. Grants and the derived steward
// role commit together; notifications go out only after commit.
type Service struct {
	uow      storage.UnitOfWork
	notifier notifications.Notifier
	metrics  *metrics.Metrics
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewService(uow storage.UnitOfWork, notifier notifications.Notifier, m *metrics.Metrics, logger *zap.SugaredLogger) *Service {
	if notifier == nil {
		notifier = notifications.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		uow:      uow,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) oracle(stores *storage.Stores) *Oracle {
	return NewOracle(NewLedger(stores.Stewardship))
}

// AssignSteward opens a grant for userID over venueID starting at startDate
// (now when zero). It is rejected when any grant of the pair is active at
// some instant from startDate on, including grants that have not started.
func (s *Service) AssignSteward(ctx context.Context, venueID, userID, adminID int64, startDate time.Time) (grant *stewardship.Grant, err error) {
	ctx, span := tracer.Start(ctx, "steward.AssignSteward", trace.WithAttributes(
		attribute.Int64("venue.id", venueID),
		attribute.Int64("user.id", userID),
	))
	defer func() { endSpan(span, err) }()

	now := s.now().UTC()
	if startDate.IsZero() {
		startDate = now
	}
	startDate = startDate.UTC()

	var change notifications.StewardChange
	err = s.uow.WithTx(ctx, func(stores *storage.Stores) error {
		venue, err := stores.Venues.GetVenueByID(ctx, venueID)
		if err != nil {
			return lookupErr(err, "venue not found")
		}
		user, err := stores.Users.GetByID(ctx, userID)
		if err != nil {
			return lookupErr(err, "user not found")
		}

		ledger := NewLedger(stores.Stewardship)
		overlapping, err := ledger.Overlapping(ctx, userID, venueID, startDate)
		if err != nil {
			return apperr.Internal(err, "failed to check stewardship")
		}
		if len(overlapping) > 0 {
			return apperr.Validation("user is already an active steward of this venue")
		}

		grant, err = ledger.Grant(ctx, userID, venueID, startDate, adminID)
		if err != nil {
			return apperr.Internal(err, "failed to grant stewardship")
		}
		if err := stores.AccessControl.AssignRole(ctx, userID, accesscontrol.RoleSteward); err != nil {
			return apperr.Internal(err, "failed to assign steward role")
		}

		change = notifications.StewardChange{Grant: *grant, Steward: *user, Venue: *venue}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveStewardshipChange("grant")
	s.logger.Infow("steward assigned", "venue_id", venueID, "user_id", userID, "admin_id", adminID, "start_date", startDate)
	s.notifier.StewardAssigned(ctx, change)
	return grant, nil
}

// RevokeSteward ends userID's active grants over venueID as of now and
// cancels the ones that have not started. The steward role is dropped once
// the user has no active or upcoming grant at any venue.
func (s *Service) RevokeSteward(ctx context.Context, venueID, userID, adminID int64) (err error) {
	ctx, span := tracer.Start(ctx, "steward.RevokeSteward", trace.WithAttributes(
		attribute.Int64("venue.id", venueID),
		attribute.Int64("user.id", userID),
	))
	defer func() { endSpan(span, err) }()

	now := s.now().UTC()
	var changes []notifications.StewardChange
	err = s.uow.WithTx(ctx, func(stores *storage.Stores) error {
		venue, err := stores.Venues.GetVenueByID(ctx, venueID)
		if err != nil {
			return lookupErr(err, "venue not found")
		}
		user, err := stores.Users.GetByID(ctx, userID)
		if err != nil {
			return lookupErr(err, "user not found")
		}

		ledger := NewLedger(stores.Stewardship)
		closed, err := ledger.Revoke(ctx, userID, venueID, now, adminID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotAuthorized) {
				return err
			}
			return apperr.Internal(err, "failed to revoke stewardship")
		}

		stillSteward, err := NewOracle(ledger).HasOutstanding(ctx, userID, now)
		if err != nil {
			return apperr.Internal(err, "failed to check remaining stewardships")
		}
		if !stillSteward {
			if err := stores.AccessControl.RemoveRole(ctx, userID, accesscontrol.RoleSteward); err != nil {
				return apperr.Internal(err, "failed to remove steward role")
			}
		}

		for _, g := range closed {
			changes = append(changes, notifications.StewardChange{Grant: g, Steward: *user, Venue: *venue})
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.ObserveStewardshipChange("revoke")
	s.logger.Infow("steward revoked", "venue_id", venueID, "user_id", userID, "admin_id", adminID, "closed", len(changes))
	for _, c := range changes {
		s.notifier.StewardRevoked(ctx, c)
	}
	return nil
}

// IsSteward reports whether userID administers venueID at asOf, or now when
// asOf is zero.
func (s *Service) IsSteward(ctx context.Context, userID, venueID int64, asOf time.Time) (bool, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	ok, err := s.oracle(s.uow.Read()).IsSteward(ctx, userID, venueID, asOf.UTC())
	if err != nil {
		return false, apperr.Internal(err, "failed to check stewardship")
	}
	return ok, nil
}

func (s *Service) StewardedVenues(ctx context.Context, userID int64) ([]int64, error) {
	venueIDs, err := s.oracle(s.uow.Read()).StewardedVenues(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, apperr.Internal(err, "failed to list stewarded venues")
	}
	return venueIDs, nil
}

// CanAdminister is true for administrators and current stewards of venueID.
func (s *Service) CanAdminister(ctx context.Context, userID, venueID int64) (bool, error) {
	stores := s.uow.Read()
	ok, err := s.oracle(stores).CanAdminister(ctx, stores.AccessControl, userID, venueID, s.now().UTC())
	if err != nil {
		return false, apperr.Internal(err, "failed to check permissions")
	}
	return ok, nil
}

// Roles lists the names of the roles userID holds, the derived steward role
// included, in name order.
func (s *Service) Roles(ctx context.Context, userID int64) ([]string, error) {
	roles, err := s.uow.Read().AccessControl.GetUserRoles(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load roles")
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}

// History lists every grant recorded for venueID, newest first.
func (s *Service) History(ctx context.Context, venueID int64) ([]stewardship.Grant, error) {
	stores := s.uow.Read()
	if _, err := stores.Venues.GetVenueByID(ctx, venueID); err != nil {
		return nil, lookupErr(err, "venue not found")
	}
	grants, err := NewLedger(stores.Stewardship).History(ctx, venueID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load stewardship history")
	}
	return grants, nil
}

func lookupErr(err error, notFound string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Internal(err, "failed to load "+strings.TrimSuffix(notFound, " not found"))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.KindOf(err).String())
	}
	span.End()
}
