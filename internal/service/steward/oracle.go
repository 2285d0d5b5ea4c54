package steward

import (
	"context"
	"slices"
	"time"

	"reviewhub/internal/domain/accesscontrol"
)

// Oracle answers authorization questions by querying the ledger each time.
// It only reads, so it is safe to call repeatedly inside one transaction.
type Oracle struct {
	ledger *Ledger
}

func NewOracle(ledger *Ledger) *Oracle {
	return &Oracle{ledger: ledger}
}

func (o *Oracle) IsSteward(ctx context.Context, userID, venueID int64, asOf time.Time) (bool, error) {
	for g, err := range o.ledger.ActiveForVenue(ctx, venueID, asOf) {
		if err != nil {
			return false, err
		}
		if g.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// StewardedVenues lists the venues userID administers at asOf, ascending.
func (o *Oracle) StewardedVenues(ctx context.Context, userID int64, asOf time.Time) ([]int64, error) {
	var venueIDs []int64
	for g, err := range o.ledger.ActiveForUser(ctx, userID, asOf) {
		if err != nil {
			return nil, err
		}
		venueIDs = append(venueIDs, g.VenueID)
	}
	slices.Sort(venueIDs)
	return slices.Compact(venueIDs), nil
}

// HasOutstanding reports whether userID stewards at least one venue at asOf
// or holds a grant that starts later.
func (o *Oracle) HasOutstanding(ctx context.Context, userID int64, asOf time.Time) (bool, error) {
	for _, err := range o.ledger.Outstanding(ctx, userID, asOf) {
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// CanAdminister is true for administrators and for active stewards of the
// venue. Administrators never reach the ledger query.
func (o *Oracle) CanAdminister(ctx context.Context, roles accesscontrol.Store, userID, venueID int64, asOf time.Time) (bool, error) {
	isAdmin, err := roles.UserHasRole(ctx, userID, accesscontrol.RoleAdmin)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}
	return o.IsSteward(ctx, userID, venueID, asOf)
}
