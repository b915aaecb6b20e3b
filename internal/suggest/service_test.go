package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/studiobelle/agenda/internal/appointments"
	"github.com/studiobelle/agenda/internal/finance"
	"github.com/studiobelle/agenda/internal/procedures"
	"github.com/studiobelle/agenda/internal/scheduling"
)

type stubLLM struct {
	lastReq LLMRequest
	text    string
	err     error
}

func (s *stubLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	return LLMResponse{Text: s.text, StopReason: "STOP"}, nil
}

type stubBookings struct {
	appts []appointments.Appointment
}

func (s *stubBookings) ListByDate(_ context.Context, _ string) ([]appointments.Appointment, error) {
	return s.appts, nil
}

type stubCatalog struct {
	procs []procedures.Procedure
}

func (s *stubCatalog) List(_ context.Context) ([]procedures.Procedure, error) {
	return s.procs, nil
}

type stubRollups struct {
	month   string
	summary *finance.MonthlySummary
	err     error
}

func (s *stubRollups) MonthlySummary(_ context.Context, month string) (*finance.MonthlySummary, error) {
	s.month = month
	return s.summary, s.err
}

func newTestService(llm LLMClient) *Service {
	bookings := &stubBookings{appts: []appointments.Appointment{
		{
			ID: "a1", Time: "09:00", TotalDurationMinutes: 60,
			Status:     appointments.StatusConfirmed,
			Procedures: []appointments.ProcedureSnapshot{{Name: "Haircut"}},
		},
		{
			ID: "a2", Time: "14:00", TotalDurationMinutes: 30,
			Status:     appointments.StatusCancelled,
			Procedures: []appointments.ProcedureSnapshot{{Name: "Manicure"}},
		},
	}}
	catalog := &stubCatalog{procs: []procedures.Procedure{
		{ID: "p1", Name: "Haircut", DurationMinutes: 60},
		{ID: "p2", Name: "Hydration", DurationMinutes: 45},
	}}
	rollups := &stubRollups{summary: &finance.MonthlySummary{
		Month: "2026-03", AppointmentCount: 42, AttendedCount: 30, CancelledCount: 4, NetCents: 815000,
	}}
	return NewService(llm, bookings, catalog, rollups, scheduling.DefaultWorkDay, nil)
}

func TestOptimizeSchedulePromptContents(t *testing.T) {
	llm := &stubLLM{text: "- move the 09:00 earlier"}
	svc := newTestService(llm)

	out, err := svc.OptimizeSchedule(context.Background(), "2026-03-10")
	if err != nil {
		t.Fatalf("OptimizeSchedule failed: %v", err)
	}
	if out != "- move the 09:00 earlier" {
		t.Fatalf("unexpected suggestion %q", out)
	}

	prompt := llm.lastReq.Messages[0].Content
	if !strings.Contains(prompt, "09:00, 60 min, Haircut") {
		t.Fatalf("prompt missing confirmed appointment:\n%s", prompt)
	}
	if strings.Contains(prompt, "Manicure") {
		t.Fatalf("cancelled appointment leaked into prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "06:00-20:00") {
		t.Fatalf("prompt missing working hours:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Month so far: 42 appointments (30 attended, 4 cancelled)") {
		t.Fatalf("prompt missing month context:\n%s", prompt)
	}
}

func TestOptimizeScheduleSurvivesRollupFailure(t *testing.T) {
	llm := &stubLLM{text: "- nothing to move"}
	bookings := &stubBookings{}
	catalog := &stubCatalog{}
	rollups := &stubRollups{err: errors.New("db down")}
	svc := NewService(llm, bookings, catalog, rollups, scheduling.DefaultWorkDay, nil)

	out, err := svc.OptimizeSchedule(context.Background(), "2026-03-10")
	if err != nil {
		t.Fatalf("OptimizeSchedule failed: %v", err)
	}
	if out == "" {
		t.Fatalf("expected suggestion text")
	}
	if rollups.month != "2026-03" {
		t.Fatalf("expected month 2026-03 requested, got %q", rollups.month)
	}
	if strings.Contains(llm.lastReq.Messages[0].Content, "Month so far") {
		t.Fatalf("prompt should omit month context when rollup fails:\n%s", llm.lastReq.Messages[0].Content)
	}
}

func TestOptimizeScheduleRejectsBadDate(t *testing.T) {
	svc := newTestService(&stubLLM{})
	if _, err := svc.OptimizeSchedule(context.Background(), "10/03/2026"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestOptimizeScheduleWithoutLLM(t *testing.T) {
	svc := newTestService(nil)
	if _, err := svc.OptimizeSchedule(context.Background(), "2026-03-10"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSuggestProceduresIncludesCatalog(t *testing.T) {
	llm := &stubLLM{text: "Hydration, because..."}
	svc := newTestService(llm)

	out, err := svc.SuggestProcedures(context.Background(), ProcedureQuery{
		CustomerName:   "Ana",
		PastProcedures: []string{"Haircut"},
	})
	if err != nil {
		t.Fatalf("SuggestProcedures failed: %v", err)
	}
	if out == "" {
		t.Fatalf("expected suggestion text")
	}

	prompt := llm.lastReq.Messages[0].Content
	for _, want := range []string{"Customer: Ana", "Past services: Haircut", "Hydration (45 min)"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSuggestProceduresRequiresName(t *testing.T) {
	svc := newTestService(&stubLLM{})
	if _, err := svc.SuggestProcedures(context.Background(), ProcedureQuery{}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
