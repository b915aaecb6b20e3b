package gcal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/studiobelle/agenda/internal/appointments"
)

type stubClient struct {
	mu       sync.Mutex
	upserted []string
	deleted  []string
	eventID  string
}

func (c *stubClient) UpsertEvent(_ context.Context, a appointments.Appointment) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upserted = append(c.upserted, a.ID)
	if c.eventID != "" {
		return c.eventID, nil
	}
	return "evt-" + a.ID, nil
}

func (c *stubClient) DeleteEvent(_ context.Context, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, eventID)
	return nil
}

func (c *stubClient) snapshot() ([]string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.upserted...), append([]string(nil), c.deleted...)
}

type stubRecorder struct {
	mu      sync.Mutex
	records map[string]string
}

func (r *stubRecorder) SetCalendarEventID(_ context.Context, id, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records == nil {
		r.records = map[string]string{}
	}
	r.records[id] = eventID
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func testAppointment(id string) appointments.Appointment {
	return appointments.Appointment{
		ID:                   id,
		CustomerName:         "Ana",
		Date:                 "2026-03-10",
		Time:                 "09:00",
		TotalDurationMinutes: 60,
		Procedures: []appointments.ProcedureSnapshot{
			{ProcedureID: "p1", Name: "Haircut", DurationMinutes: 60},
		},
	}
}

func TestSyncerUpsertRecordsEventID(t *testing.T) {
	client := &stubClient{}
	recorder := &stubRecorder{}
	syncer := NewSyncer(client, recorder, 8, nil, nil)
	syncer.Start(context.Background())
	defer syncer.Stop()

	syncer.AppointmentUpserted(testAppointment("a1"))

	waitFor(t, func() bool {
		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		return recorder.records["a1"] == "evt-a1"
	})
}

func TestSyncerDeleteSkipsWithoutEventID(t *testing.T) {
	client := &stubClient{}
	syncer := NewSyncer(client, nil, 8, nil, nil)
	syncer.Start(context.Background())

	appt := testAppointment("a2")
	syncer.AppointmentRemoved(appt)

	appt.CalendarEventID = "evt-a2"
	syncer.AppointmentRemoved(appt)

	waitFor(t, func() bool {
		_, deleted := client.snapshot()
		return len(deleted) == 1 && deleted[0] == "evt-a2"
	})
	syncer.Stop()

	_, deleted := client.snapshot()
	if len(deleted) != 1 {
		t.Fatalf("expected exactly one delete, got %v", deleted)
	}
}

func TestSyncerDrainsQueueOnStop(t *testing.T) {
	client := &stubClient{}
	syncer := NewSyncer(client, nil, 8, nil, nil)

	// Queue before the worker starts so Stop has to drain.
	syncer.AppointmentUpserted(testAppointment("a3"))
	syncer.AppointmentUpserted(testAppointment("a4"))

	syncer.Start(context.Background())
	syncer.Stop()

	upserted, _ := client.snapshot()
	if len(upserted) != 2 {
		t.Fatalf("expected both queued jobs processed, got %v", upserted)
	}
}

func TestBuildEventTimes(t *testing.T) {
	event, err := buildEvent(testAppointment("a5"))
	if err != nil {
		t.Fatalf("buildEvent failed: %v", err)
	}
	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		t.Fatalf("bad start time: %v", err)
	}
	end, err := time.Parse(time.RFC3339, event.End.DateTime)
	if err != nil {
		t.Fatalf("bad end time: %v", err)
	}
	if end.Sub(start) != time.Hour {
		t.Fatalf("expected 1h event, got %v", end.Sub(start))
	}
	if event.Summary != "Ana - Haircut" {
		t.Fatalf("unexpected summary %q", event.Summary)
	}
}

func TestBuildEventRejectsMalformedDate(t *testing.T) {
	appt := testAppointment("a6")
	appt.Date = "10/03/2026"
	if _, err := buildEvent(appt); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}
