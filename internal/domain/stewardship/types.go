package stewardship

import "time"

// Grant is one continuous interval of delegated authority of a user over a
// venue. EndDate is nil while the interval is open. Grants are never deleted;
// revocation only sets EndDate, once.
type Grant struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	VenueID   int64      `json:"venue_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	GrantedBy int64      `json:"granted_by"`
	RevokedBy *int64     `json:"revoked_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ActiveAt reports whether at falls inside [StartDate, EndDate).
func (g Grant) ActiveAt(at time.Time) bool {
	if g.StartDate.After(at) {
		return false
	}
	return g.EndDate == nil || g.EndDate.After(at)
}

func (g Grant) IsOpen() bool {
	return g.EndDate == nil
}

// PendingAt reports whether the grant is open but has not started yet at at.
func (g Grant) PendingAt(at time.Time) bool {
	return g.IsOpen() && g.StartDate.After(at)
}

// Empty is true for a grant cancelled before its start: it never activates.
func (g Grant) Empty() bool {
	return g.EndDate != nil && !g.EndDate.After(g.StartDate)
}

// OverlapsFrom reports whether the grant is active at any instant from at
// onwards.
func (g Grant) OverlapsFrom(at time.Time) bool {
	if g.Empty() {
		return false
	}
	return g.EndDate == nil || g.EndDate.After(at)
}
