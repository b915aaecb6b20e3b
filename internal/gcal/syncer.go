package gcal

import (
	"context"
	"sync"
	"time"

	"github.com/studiobelle/agenda/internal/appointments"
	"github.com/studiobelle/agenda/internal/observability/metrics"
	"github.com/studiobelle/agenda/pkg/logging"
)

type syncAction string

const (
	actionUpsert syncAction = "upsert"
	actionDelete syncAction = "delete"
)

// SyncJob is one piece of calendar work queued by a booking mutation.
type SyncJob struct {
	Action      syncAction
	Appointment appointments.Appointment
}

// EventRecorder persists the calendar event id produced by a sync so later
// edits update the same event instead of creating duplicates.
type EventRecorder interface {
	SetCalendarEventID(ctx context.Context, id, eventID string) error
}

// Syncer consumes sync jobs on a background goroutine. It satisfies the
// booking service's calendar hook; enqueueing never blocks the caller.
type Syncer struct {
	client   Client
	recorder EventRecorder
	jobs     chan SyncJob
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger

	stop    context.CancelFunc
	done    chan struct{}
	startMu sync.Mutex
	started bool
}

// NewSyncer creates a syncer with the given queue buffer. recorder and
// metrics may be nil.
func NewSyncer(client Client, recorder EventRecorder, buffer int, m *metrics.BookingMetrics, logger *logging.Logger) *Syncer {
	if client == nil {
		panic("gcal: client required")
	}
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Syncer{
		client:   client,
		recorder: recorder,
		jobs:     make(chan SyncJob, buffer),
		metrics:  m,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// AppointmentUpserted queues a create-or-update for the appointment's event.
func (s *Syncer) AppointmentUpserted(a appointments.Appointment) {
	s.enqueue(SyncJob{Action: actionUpsert, Appointment: a})
}

// AppointmentRemoved queues deletion of the appointment's event.
func (s *Syncer) AppointmentRemoved(a appointments.Appointment) {
	s.enqueue(SyncJob{Action: actionDelete, Appointment: a})
}

func (s *Syncer) enqueue(job SyncJob) {
	select {
	case s.jobs <- job:
	default:
		// Queue full. Drop rather than stall the booking path.
		s.metrics.ObserveCalendarSync("dropped")
		s.logger.Warn("calendar sync queue full, dropping job",
			"action", string(job.Action), "appointment_id", job.Appointment.ID)
	}
}

// Start launches the worker goroutine. Safe to call once.
func (s *Syncer) Start(ctx context.Context) {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.stop = context.WithCancel(ctx)
	go s.run(ctx)
}

// Stop cancels the worker and waits for in-flight work to finish.
func (s *Syncer) Stop() {
	s.startMu.Lock()
	stop := s.stop
	started := s.started
	s.startMu.Unlock()
	if !started {
		return
	}
	if stop != nil {
		stop()
	}
	<-s.done
}

func (s *Syncer) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return
		case job := <-s.jobs:
			s.process(job)
		}
	}
}

// drain flushes whatever is already queued during shutdown.
func (s *Syncer) drain() {
	for {
		select {
		case job := <-s.jobs:
			s.process(job)
		default:
			return
		}
	}
}

func (s *Syncer) process(job SyncJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch job.Action {
	case actionUpsert:
		eventID, err := s.client.UpsertEvent(ctx, job.Appointment)
		if err != nil {
			s.metrics.ObserveCalendarSync("error")
			s.logger.Error("calendar upsert failed",
				"appointment_id", job.Appointment.ID, "error", err)
			return
		}
		if s.recorder != nil && eventID != job.Appointment.CalendarEventID {
			if err := s.recorder.SetCalendarEventID(ctx, job.Appointment.ID, eventID); err != nil {
				s.logger.Warn("failed to record calendar event id",
					"appointment_id", job.Appointment.ID, "error", err)
			}
		}
		s.metrics.ObserveCalendarSync("ok")
	case actionDelete:
		if job.Appointment.CalendarEventID == "" {
			return
		}
		if err := s.client.DeleteEvent(ctx, job.Appointment.CalendarEventID); err != nil {
			s.metrics.ObserveCalendarSync("error")
			s.logger.Error("calendar delete failed",
				"appointment_id", job.Appointment.ID, "error", err)
			return
		}
		s.metrics.ObserveCalendarSync("ok")
	}
}
