package venues

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOccurrencesThrough(t *testing.T) {
	endsOn := date(2024, 1, 3)

	tests := []struct {
		name  string
		event Event
		day   time.Time
		want  int
	}{
		{
			name:  "daily",
			event: Event{StartsOn: date(2024, 1, 1), Recurrence: RecurrenceDaily, Interval: 1},
			day:   date(2024, 1, 5),
			want:  5,
		},
		{
			name:  "same day counts as first occurrence",
			event: Event{StartsOn: date(2024, 1, 1), Recurrence: RecurrenceDaily, Interval: 1},
			day:   date(2024, 1, 1).Add(15 * time.Hour),
			want:  1,
		},
		{
			name:  "weekly on boundary",
			event: Event{StartsOn: date(2024, 1, 1), Recurrence: RecurrenceWeekly, Interval: 1},
			day:   date(2024, 1, 29),
			want:  5,
		},
		{
			name:  "weekly day before boundary",
			event: Event{StartsOn: date(2024, 1, 1), Recurrence: RecurrenceWeekly, Interval: 1},
			day:   date(2024, 1, 28),
			want:  4,
		},
		{
			name:  "fortnightly",
			event: Event{StartsOn: date(2024, 1, 1), Recurrence: RecurrenceWeekly, Interval: 2},
			day:   date(2024, 1, 29),
			want:  3,
		},
		{
			name:  "monthly",
			event: Event{StartsOn: date(2024, 1, 15), Recurrence: RecurrenceMonthly, Interval: 1},
			day:   date(2024, 5, 14),
			want:  4,
		},
		{
			name:  "yearly",
			event: Event{StartsOn: date(2020, 3, 1), Recurrence: RecurrenceYearly, Interval: 1},
			day:   date(2024, 3, 1),
			want:  5,
		},
		{
			name:  "stops at end date",
			event: Event{StartsOn: date(2024, 1, 1), Recurrence: RecurrenceDaily, Interval: 1, EndsOn: &endsOn},
			day:   date(2024, 1, 10),
			want:  3,
		},
		{
			name:  "zero interval treated as one",
			event: Event{StartsOn: date(2024, 1, 1), Recurrence: RecurrenceDaily},
			day:   date(2024, 1, 2),
			want:  2,
		},
		{
			name:  "not started yet",
			event: Event{StartsOn: date(2024, 2, 1), Recurrence: RecurrenceWeekly, Interval: 1},
			day:   date(2024, 1, 31),
			want:  0,
		},
		{
			name:  "one-off in the past",
			event: Event{StartsOn: date(2024, 1, 1), Recurrence: RecurrenceNone},
			day:   date(2024, 6, 1),
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.OccurrencesThrough(tt.day))
		})
	}
}

func TestIsRecurring(t *testing.T) {
	assert.False(t, Event{Recurrence: RecurrenceNone}.IsRecurring())
	assert.False(t, Event{}.IsRecurring())
	assert.True(t, Event{Recurrence: RecurrenceMonthly}.IsRecurring())
}
