package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/studiobelle/agenda/internal/observability/metrics"
	"github.com/studiobelle/agenda/internal/procedures"
	"github.com/studiobelle/agenda/internal/scheduling"
	"github.com/studiobelle/agenda/pkg/logging"
)

var bookingTracer = otel.Tracer("agenda.internal.appointments")

var (
	// ErrInvalid marks rejected input (missing fields, bad date/time).
	ErrInvalid = errors.New("appointments: invalid input")
	// ErrSlotUnavailable is returned when the requested start time is not
	// among the free slots for the requested day.
	ErrSlotUnavailable = errors.New("appointments: requested time is not available")
	// ErrNotEditable is returned when editing an appointment that already
	// reached a terminal status.
	ErrNotEditable = errors.New("appointments: only confirmed appointments can be edited")
	// ErrInvalidTransition is returned for status changes out of a terminal
	// state.
	ErrInvalidTransition = errors.New("appointments: invalid status transition")
)

type repository interface {
	Create(ctx context.Context, a Appointment) (*Appointment, error)
	Update(ctx context.Context, a Appointment) (*Appointment, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Appointment, error)
	ListByDate(ctx context.Context, date string) ([]Appointment, error)
	ListByMonth(ctx context.Context, month string) ([]Appointment, error)
}

type catalog interface {
	GetMany(ctx context.Context, ids []string) ([]procedures.Procedure, error)
}

// CalendarSync mirrors bookings into an external calendar. Implementations
// are best-effort: they must never fail the booking itself.
type CalendarSync interface {
	AppointmentUpserted(a Appointment)
	AppointmentRemoved(a Appointment)
}

// SummaryInvalidator drops cached monthly rollups after a mutation.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context, month string) error
}

// BookingRequest carries the fields for creating or editing an appointment.
type BookingRequest struct {
	ProcedureIDs  []string `json:"procedure_ids"`
	CustomerName  string   `json:"customer_name"`
	CustomerPhone string   `json:"customer_phone"`
	Notes         string   `json:"notes"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	DepositPaid   bool     `json:"deposit_paid"`
	PaymentMethod string   `json:"payment_method"`
}

// Service orchestrates bookings: snapshot pricing, slot validation, and the
// best-effort calendar handoff.
type Service struct {
	repo     repository
	catalog  catalog
	workDay  scheduling.WorkDay
	calendar CalendarSync
	rollups  SummaryInvalidator
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

// NewService constructs an appointments service. calendar, rollups, and m
// may be nil; those integrations degrade to no-ops.
func NewService(repo repository, cat catalog, workDay scheduling.WorkDay,
	calendar CalendarSync, rollups SummaryInvalidator, m *metrics.BookingMetrics,
	logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if cat == nil {
		panic("appointments: procedure catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		catalog:  cat,
		workDay:  workDay,
		calendar: calendar,
		rollups:  rollups,
		metrics:  m,
		logger:   logger,
	}
}

// Availability enumerates the free start times on a day for the selected
// procedures. excludeID is the appointment being edited, if any, so its own
// span never blocks rescheduling.
func (s *Service) Availability(ctx context.Context, date string, procedureIDs []string, excludeID string) ([]string, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.availability")
	defer span.End()
	span.SetAttributes(attribute.String("agenda.date", date))

	day, err := scheduling.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(procedureIDs) == 0 {
		// No procedures selected means no duration; never propose slots.
		return []string{}, nil
	}

	procs, err := s.catalog.GetMany(ctx, procedureIDs)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	var duration time.Duration
	for _, p := range procs {
		duration += p.Duration()
	}

	existing, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	started := time.Now()
	busy := scheduling.BusyIntervals(Reservations(existing), day, excludeID)
	slots := scheduling.AvailableSlots(day, duration, busy, s.workDay)
	s.metrics.ObserveSlotCompute(time.Since(started).Seconds())

	if slots == nil {
		slots = []string{}
	}
	return slots, nil
}

// Create books a new appointment in confirmed status after validating that
// the chosen slot is still free.
func (s *Service) Create(ctx context.Context, req BookingRequest) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.create")
	defer span.End()

	appt, err := s.buildAppointment(ctx, req, "")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	appt.Status = StatusConfirmed

	created, err := s.repo.Create(ctx, *appt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.metrics.ObserveAppointment("created")
	s.logger.Info("appointment booked",
		"id", created.ID,
		"date", created.Date,
		"time", created.Time,
		"customer", created.CustomerName,
	)
	s.afterMutation(ctx, *created, false)
	return created, nil
}

// Update edits a confirmed appointment. Totals are recomputed from the
// currently selected procedures, and the availability check excludes the
// appointment's own prior interval.
func (s *Service) Update(ctx context.Context, id string, req BookingRequest) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.update")
	defer span.End()
	span.SetAttributes(attribute.String("agenda.appointment_id", id))

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusConfirmed {
		return nil, ErrNotEditable
	}

	appt, err := s.buildAppointment(ctx, req, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	appt.ID = id
	appt.Status = existing.Status
	appt.CalendarEventID = existing.CalendarEventID

	updated, err := s.repo.Update(ctx, *appt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.metrics.ObserveAppointment("updated")
	s.logger.Info("appointment rescheduled", "id", id, "date", updated.Date, "time", updated.Time)
	s.afterMutation(ctx, *updated, false)
	if existing.Date != updated.Date {
		s.invalidateMonth(ctx, existing.Date)
	}
	return updated, nil
}

// UpdateStatus transitions confirmed appointments to attended or cancelled.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.update_status")
	defer span.End()

	if status != StatusAttended && status != StatusCancelled {
		return nil, fmt.Errorf("%w: target status %q", ErrInvalidTransition, status)
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, existing.Status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.metrics.ObserveAppointment(string(status))
	s.logger.Info("appointment status changed", "id", id, "status", status)
	s.afterMutation(ctx, *updated, status == StatusCancelled)
	return updated, nil
}

// Delete removes an appointment outright.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := bookingTracer.Start(ctx, "appointments.delete")
	defer span.End()

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	s.metrics.ObserveAppointment("deleted")
	s.logger.Info("appointment deleted", "id", id)
	s.afterMutation(ctx, *existing, true)
	return nil
}

// Get returns a single appointment.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.Get(ctx, id)
}

// ListByDate returns one day's appointments.
func (s *Service) ListByDate(ctx context.Context, date string) ([]Appointment, error) {
	if _, err := scheduling.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return s.repo.ListByDate(ctx, date)
}

// ListByMonth returns a month's appointments ("YYYY-MM").
func (s *Service) ListByMonth(ctx context.Context, month string) ([]Appointment, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, fmt.Errorf("%w: invalid month %q", ErrInvalid, month)
	}
	return s.repo.ListByMonth(ctx, month)
}

// buildAppointment validates the request, snapshots the catalog, and checks
// the requested slot against current availability.
func (s *Service) buildAppointment(ctx context.Context, req BookingRequest, excludeID string) (*Appointment, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalid)
	}
	if len(req.ProcedureIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one procedure is required", ErrInvalid)
	}
	if _, err := scheduling.ParseDate(req.Date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := scheduling.ParseTimeOfDay(req.Time); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	procs, err := s.catalog.GetMany(ctx, req.ProcedureIDs)
	if err != nil {
		return nil, err
	}
	snaps, totalCents, totalMinutes := Snapshot(procs)

	slots, err := s.Availability(ctx, req.Date, req.ProcedureIDs, excludeID)
	if err != nil {
		return nil, err
	}
	if !slotOffered(slots, req.Time) {
		return nil, fmt.Errorf("%w: %s on %s", ErrSlotUnavailable, req.Time, req.Date)
	}

	return &Appointment{
		Procedures:           snaps,
		TotalPriceCents:      totalCents,
		TotalDurationMinutes: totalMinutes,
		CustomerName:         strings.TrimSpace(req.CustomerName),
		CustomerPhone:        strings.TrimSpace(req.CustomerPhone),
		Notes:                req.Notes,
		Date:                 req.Date,
		Time:                 req.Time,
		DepositPaid:          req.DepositPaid,
		PaymentMethod:        req.PaymentMethod,
	}, nil
}

// afterMutation hands the result to the best-effort integrations.
func (s *Service) afterMutation(ctx context.Context, a Appointment, removed bool) {
	if s.calendar != nil {
		if removed {
			s.calendar.AppointmentRemoved(a)
		} else {
			s.calendar.AppointmentUpserted(a)
		}
	}
	s.invalidateMonth(ctx, a.Date)
}

func (s *Service) invalidateMonth(ctx context.Context, date string) {
	if s.rollups == nil || len(date) < 7 {
		return
	}
	if err := s.rollups.Invalidate(ctx, date[:7]); err != nil {
		s.logger.Warn("rollup cache invalidation failed", "month", date[:7], "error", err)
	}
}

func slotOffered(slots []string, t string) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}
