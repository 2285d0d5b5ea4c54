package venuereviews

import "time"

// Review is never physically removed. The three flags are independent:
// HiddenByManager only affects visibility, while either delete flag takes the
// review out of the venue's live set.
type Review struct {
	ID               int64     `json:"id"`
	VenueID          int64     `json:"venue_id"`
	EventID          int64     `json:"event_id"`
	UserID           int64     `json:"user_id"`
	Occurrence       int       `json:"occurrence"`
	Comment          string    `json:"comment"`
	Rating           Rating    `json:"rating"`
	HiddenByManager  bool      `json:"hidden_by_manager"`
	DeletedByAuthor  bool      `json:"deleted_by_author"`
	DeletedByManager bool      `json:"deleted_by_manager"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Joined fields
	UserName string `json:"user_name,omitempty"`
}

// IsLive reports whether the review counts toward the venue aggregate.
func (r Review) IsLive() bool {
	return !r.DeletedByAuthor && !r.DeletedByManager
}

type Projection string

const (
	// ProjectionPublic hides every removed or hidden review.
	ProjectionPublic Projection = "public"
	// ProjectionAuthor lists an author's own reviews, hidden ones included.
	ProjectionAuthor Projection = "author"
	// ProjectionSteward lists everything but author-deleted reviews; the
	// manager-deleted ones only when IncludeManagerDeleted is set.
	ProjectionSteward Projection = "steward"
)

func (p Projection) Valid() bool {
	switch p {
	case ProjectionPublic, ProjectionAuthor, ProjectionSteward:
		return true
	}
	return false
}

type SortField string

const (
	SortByDate   SortField = "date"
	SortByRating SortField = "rating"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

type ListFilter struct {
	VenueID               int64
	Projection            Projection
	AuthorID              int64
	IncludeManagerDeleted bool
	Sort                  SortField
	Order                 SortOrder
	Limit                 int
	Offset                int
}

// Admits applies the projection rules to a single review. The SQL store
// expresses the same predicate in its WHERE clause.
func (f ListFilter) Admits(r Review) bool {
	if r.VenueID != f.VenueID || r.DeletedByAuthor {
		return false
	}
	switch f.Projection {
	case ProjectionPublic:
		return !r.DeletedByManager && !r.HiddenByManager
	case ProjectionAuthor:
		return r.UserID == f.AuthorID
	case ProjectionSteward:
		return f.IncludeManagerDeleted || !r.DeletedByManager
	}
	return false
}
