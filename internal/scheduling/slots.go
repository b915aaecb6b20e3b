package scheduling

import "time"

// WorkDay bounds candidate start times: slots are multiples of Step anchored
// at StartHour and must end no later than EndHour.
type WorkDay struct {
	StartHour int
	EndHour   int
	Step      time.Duration
}

// DefaultWorkDay is the salon's standard 06:00-20:00 day on a 30-minute grid.
var DefaultWorkDay = WorkDay{StartHour: 6, EndHour: 20, Step: 30 * time.Minute}

// NewWorkDay builds a WorkDay from hour/minute policy values, falling back to
// the defaults for out-of-range inputs.
func NewWorkDay(startHour, endHour, stepMinutes int) WorkDay {
	wd := DefaultWorkDay
	if startHour >= 0 && startHour < 24 {
		wd.StartHour = startHour
	}
	if endHour > 0 && endHour <= 24 {
		wd.EndHour = endHour
	}
	if stepMinutes > 0 {
		wd.Step = time.Duration(stepMinutes) * time.Minute
	}
	return wd
}

// AvailableSlots enumerates the bookable start times on day for a service of
// the given total duration, skipping every candidate whose span overlaps a
// busy interval. Results are "HH:MM" strings in ascending order.
//
// The function is pure and total: zero duration, zero day, or an inverted
// work-day window yield an empty result rather than an error. A candidate
// must fit entirely inside the work day; a slot ending exactly at closing is
// still offered.
func AvailableSlots(day Date, duration time.Duration, busy []Interval, wd WorkDay) []string {
	if duration <= 0 || day.IsZero() {
		return nil
	}
	dayStart := day.At(TimeOfDay(wd.StartHour * 60))
	dayEnd := day.At(TimeOfDay(wd.EndHour * 60))
	if !dayEnd.After(dayStart) || wd.Step <= 0 {
		return nil
	}

	var slots []string
	for t := dayStart; !t.Add(duration).After(dayEnd); t = t.Add(wd.Step) {
		candidate := Interval{Start: t, End: t.Add(duration)}
		if isFree(candidate, busy) {
			slots = append(slots, t.Format("15:04"))
		}
	}
	return slots
}

// isFree scans the busy set linearly; daily appointment counts are small
// enough that nothing fancier pays for itself.
func isFree(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if !b.valid() {
			continue
		}
		if candidate.Overlaps(b) {
			return false
		}
	}
	return true
}
