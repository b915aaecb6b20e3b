// Package appointments implements booking, editing, and availability for the
// salon calendar.
package appointments

import (
	"time"

	"github.com/studiobelle/agenda/internal/procedures"
	"github.com/studiobelle/agenda/internal/scheduling"
)

// Status is the appointment lifecycle state. Appointments are created
// confirmed; attended and cancelled are terminal.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusAttended  Status = "attended"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusAttended, StatusCancelled:
		return true
	}
	return false
}

// ProcedureSnapshot is the copy of a catalog entry taken at booking time.
// Later edits to the catalog never touch it, which keeps historical totals
// and busy spans accurate.
type ProcedureSnapshot struct {
	ProcedureID     string `json:"procedure_id"`
	Name            string `json:"name"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Snapshot copies the effective price and duration of each selected
// procedure, returning the snapshots with their summed totals.
func Snapshot(procs []procedures.Procedure) (snaps []ProcedureSnapshot, totalCents int64, totalMinutes int) {
	snaps = make([]ProcedureSnapshot, 0, len(procs))
	for _, p := range procs {
		snap := ProcedureSnapshot{
			ProcedureID:     p.ID,
			Name:            p.Name,
			PriceCents:      p.EffectivePriceCents(),
			DurationMinutes: p.DurationMinutes,
		}
		snaps = append(snaps, snap)
		totalCents += snap.PriceCents
		totalMinutes += snap.DurationMinutes
	}
	return snaps, totalCents, totalMinutes
}

// Appointment is a booked visit. Date and Time stay plain strings end to
// end ("YYYY-MM-DD", "HH:MM"); they are only combined into wall-clock
// instants inside the scheduling package.
type Appointment struct {
	ID                   string              `json:"id"`
	Procedures           []ProcedureSnapshot `json:"procedures"`
	TotalPriceCents      int64               `json:"total_price_cents"`
	TotalDurationMinutes int                 `json:"total_duration_minutes"`
	CustomerName         string              `json:"customer_name"`
	CustomerPhone        string              `json:"customer_phone,omitempty"`
	Notes                string              `json:"notes,omitempty"`
	Date                 string              `json:"date"`
	Time                 string              `json:"time"`
	Status               Status              `json:"status"`
	DepositPaid          bool                `json:"deposit_paid"`
	PaymentMethod        string              `json:"payment_method,omitempty"`
	CalendarEventID      string              `json:"-"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// Reservation converts the appointment into the slot engine's view. Rows
// with unparseable date or time produce a zero reservation, which the busy
// builder discards.
func (a Appointment) Reservation() scheduling.Reservation {
	date, err := scheduling.ParseDate(a.Date)
	if err != nil {
		return scheduling.Reservation{}
	}
	start, err := scheduling.ParseTimeOfDay(a.Time)
	if err != nil {
		return scheduling.Reservation{}
	}
	return scheduling.Reservation{
		ID:       a.ID,
		Date:     date,
		Start:    start,
		Duration: time.Duration(a.TotalDurationMinutes) * time.Minute,
		Status:   string(a.Status),
	}
}

// Reservations maps a slice of appointments for the busy builder.
func Reservations(appts []Appointment) []scheduling.Reservation {
	out := make([]scheduling.Reservation, 0, len(appts))
	for _, a := range appts {
		out = append(out, a.Reservation())
	}
	return out
}
