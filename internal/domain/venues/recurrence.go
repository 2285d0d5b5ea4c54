package venues

import "time"

func (e Event) IsRecurring() bool {
	switch e.Recurrence {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	default:
		return false
	}
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OccurrencesThrough counts the occurrences of e on or before day. The count
// stops at EndsOn when it is set.
func (e Event) OccurrencesThrough(day time.Time) int {
	start := Day(e.StartsOn)
	last := Day(day)
	if e.EndsOn != nil && Day(*e.EndsOn).Before(last) {
		last = Day(*e.EndsOn)
	}
	if start.After(last) {
		return 0
	}
	if !e.IsRecurring() {
		return 1
	}

	step := e.Interval
	if step < 1 {
		step = 1
	}
	days := int(last.Sub(start).Hours() / 24)

	switch e.Recurrence {
	case RecurrenceDaily:
		return days/step + 1
	case RecurrenceWeekly:
		return days/(7*step) + 1
	}

	n := 0
	for k := 0; ; k++ {
		var next time.Time
		if e.Recurrence == RecurrenceMonthly {
			next = start.AddDate(0, k*step, 0)
		} else {
			next = start.AddDate(k*step, 0, 0)
		}
		if next.After(last) {
			return n
		}
		n++
	}
}
