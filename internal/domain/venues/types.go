package venues

import "time"

// Venue carries the denormalized AverageRating, recomputed from the venue's
// live reviews on every change of that set.
type Venue struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	AverageRating float64   `json:"average_rating"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// Event is held at a venue. StartsOn is the date of the first occurrence;
// a recurring event repeats every Interval units of Recurrence until EndsOn.
type Event struct {
	ID         int64      `json:"id"`
	VenueID    int64      `json:"venue_id"`
	Name       string     `json:"name"`
	StartsOn   time.Time  `json:"starts_on"`
	Recurrence Recurrence `json:"recurrence"`
	Interval   int        `json:"recurrence_interval"`
	EndsOn     *time.Time `json:"ends_on,omitempty"`
}
