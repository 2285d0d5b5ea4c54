// Package steward keeps the time-bounded record of who administers which
// venue and answers authorization questions from it at evaluation time.
package steward

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"reviewhub/internal/apperr"
	"reviewhub/internal/domain/stewardship"
	"reviewhub/internal/sentinel"
)

// Ledger is an append-only log of stewardship intervals. Grants are only ever
// inserted or closed; history stays queryable at any instant.
type Ledger struct {
	store stewardship.Store
}

func NewLedger(store stewardship.Store) *Ledger {
	return &Ledger{store: store}
}

// Grant opens a new interval starting at start. It does not look for
// existing grants of the pair; callers check with Overlapping first.
func (l *Ledger) Grant(ctx context.Context, userID, venueID int64, start time.Time, grantedBy int64) (*stewardship.Grant, error) {
	g := &stewardship.Grant{
		UserID:    userID,
		VenueID:   venueID,
		StartDate: start,
		GrantedBy: grantedBy,
	}
	if err := l.store.Insert(ctx, g); err != nil {
		return nil, fmt.Errorf("insert grant: %w", err)
	}
	return g, nil
}

// Revoke ends every interval of the pair active at asOf and cancels the ones
// still waiting to start, and returns them as closed. A pending grant is
// closed at its own start so it never becomes active. Intervals already
// carrying an end date keep it.
func (l *Ledger) Revoke(ctx context.Context, userID, venueID int64, asOf time.Time, revokedBy int64) ([]stewardship.Grant, error) {
	grants, err := l.pair(ctx, userID, venueID)
	if err != nil {
		return nil, err
	}
	var targets []stewardship.Grant
	for _, g := range grants {
		if g.ActiveAt(asOf) || g.PendingAt(asOf) {
			targets = append(targets, g)
		}
	}
	if len(targets) == 0 {
		return nil, apperr.NotAuthorized("not an active steward")
	}

	closed := make([]stewardship.Grant, 0, len(targets))
	for _, g := range targets {
		if !g.IsOpen() {
			continue
		}
		end := asOf
		if g.StartDate.After(asOf) {
			end = g.StartDate
		}
		if err := l.store.Close(ctx, g.ID, end, revokedBy); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				// closed concurrently; the end it got stays
				continue
			}
			return nil, fmt.Errorf("close grant %d: %w", g.ID, err)
		}
		g.EndDate = &end
		g.RevokedBy = &revokedBy
		closed = append(closed, g)
	}
	return closed, nil
}

// ActiveForVenue yields the grants of venueID active at asOf, in no
// particular order. Each range over the sequence runs a fresh query.
func (l *Ledger) ActiveForVenue(ctx context.Context, venueID int64, asOf time.Time) iter.Seq2[stewardship.Grant, error] {
	return lazy(func() ([]stewardship.Grant, error) {
		return l.store.ListActiveByVenue(ctx, venueID, asOf)
	})
}

// ActiveForUser yields the grants held by userID at asOf across all venues.
func (l *Ledger) ActiveForUser(ctx context.Context, userID int64, asOf time.Time) iter.Seq2[stewardship.Grant, error] {
	return lazy(func() ([]stewardship.Grant, error) {
		return l.store.ListActiveByUser(ctx, userID, asOf)
	})
}

// Overlapping returns the grants of the pair that are active at some instant
// from start onwards. A new open grant from start must not meet any of them.
func (l *Ledger) Overlapping(ctx context.Context, userID, venueID int64, start time.Time) ([]stewardship.Grant, error) {
	grants, err := l.pair(ctx, userID, venueID)
	if err != nil {
		return nil, err
	}
	var out []stewardship.Grant
	for _, g := range grants {
		if g.OverlapsFrom(start) {
			out = append(out, g)
		}
	}
	return out, nil
}

// Outstanding yields userID's grants that are active at asOf or have yet to
// start, across all venues.
func (l *Ledger) Outstanding(ctx context.Context, userID int64, asOf time.Time) iter.Seq2[stewardship.Grant, error] {
	return lazy(func() ([]stewardship.Grant, error) {
		grants, err := l.store.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		var out []stewardship.Grant
		for _, g := range grants {
			if g.ActiveAt(asOf) || g.PendingAt(asOf) {
				out = append(out, g)
			}
		}
		return out, nil
	})
}

func (l *Ledger) pair(ctx context.Context, userID, venueID int64) ([]stewardship.Grant, error) {
	grants, err := l.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	var out []stewardship.Grant
	for _, g := range grants {
		if g.VenueID == venueID {
			out = append(out, g)
		}
	}
	return out, nil
}

// History returns every grant ever recorded for the venue, newest first.
func (l *Ledger) History(ctx context.Context, venueID int64) ([]stewardship.Grant, error) {
	return l.store.ListByVenue(ctx, venueID)
}

func lazy(load func() ([]stewardship.Grant, error)) iter.Seq2[stewardship.Grant, error] {
	return func(yield func(stewardship.Grant, error) bool) {
		grants, err := load()
		if err != nil {
			yield(stewardship.Grant{}, err)
			return
		}
		for _, g := range grants {
			if !yield(g, nil) {
				return
			}
		}
	}
}
