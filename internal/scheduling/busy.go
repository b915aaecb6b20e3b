package scheduling

import "time"

// Statuses that occupy time on the calendar. Cancelled appointments never
// block a slot.
const (
	StatusConfirmed = "confirmed"
	StatusAttended  = "attended"
)

// Interval is a half-open occupied span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// valid rejects malformed intervals so a bad row degrades to "no exclusion"
// instead of poisoning the enumeration.
func (iv Interval) valid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps applies the half-open overlap test: touching endpoints are not
// overlaps, so one appointment may start exactly when another ends.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Reservation is the engine's view of an existing appointment: when it
// starts, how long it runs, and whether it still occupies the calendar.
// Duration is the span stored at booking time, taken verbatim; it is never
// recomputed from the current procedure catalog.
type Reservation struct {
	ID       string
	Date     Date
	Start    TimeOfDay
	Duration time.Duration
	Status   string
}

// BusyIntervals derives the occupied spans on day from the reservation set.
// A reservation contributes iff it falls on the same calendar date, its
// status is confirmed or attended, and its ID differs from excludeID (so an
// appointment being edited never collides with its own prior booking).
// Output order carries no meaning; callers treat the result as a set.
func BusyIntervals(reservations []Reservation, day Date, excludeID string) []Interval {
	if day.IsZero() {
		return nil
	}
	var busy []Interval
	for _, res := range reservations {
		if !res.Date.Equal(day) {
			continue
		}
		if res.Status != StatusConfirmed && res.Status != StatusAttended {
			continue
		}
		if excludeID != "" && res.ID == excludeID {
			continue
		}
		if res.Duration <= 0 {
			continue
		}
		start := day.At(res.Start)
		busy = append(busy, Interval{Start: start, End: start.Add(res.Duration)})
	}
	return busy
}
