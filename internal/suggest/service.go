package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/studiobelle/agenda/internal/appointments"
	"github.com/studiobelle/agenda/internal/finance"
	"github.com/studiobelle/agenda/internal/procedures"
	"github.com/studiobelle/agenda/internal/scheduling"
	"github.com/studiobelle/agenda/pkg/logging"
)

var (
	// ErrUnavailable is returned when no LLM client is configured.
	ErrUnavailable = errors.New("suggest: llm not configured")
	// ErrInvalid marks bad request input.
	ErrInvalid = errors.New("suggest: invalid request")
)

type bookings interface {
	ListByDate(ctx context.Context, date string) ([]appointments.Appointment, error)
}

type catalog interface {
	List(ctx context.Context) ([]procedures.Procedure, error)
}

type rollups interface {
	MonthlySummary(ctx context.Context, month string) (*finance.MonthlySummary, error)
}

// ProcedureQuery describes a customer for upsell suggestions.
type ProcedureQuery struct {
	CustomerName   string   `json:"customer_name"`
	PastProcedures []string `json:"past_procedures"`
	Notes          string   `json:"notes,omitempty"`
}

// Service builds prompts from booking data and delegates to the LLM.
type Service struct {
	llm      LLMClient
	bookings bookings
	catalog  catalog
	rollups  rollups
	workDay  scheduling.WorkDay
	tracer   trace.Tracer
	logger   *logging.Logger
}

// NewService wires the suggestion service. llm may be nil; calls then fail
// with ErrUnavailable so the API can answer 503. rollups may be nil; the
// schedule prompt then omits the month context.
func NewService(llm LLMClient, bookings bookings, catalog catalog, rollups rollups, workDay scheduling.WorkDay, logger *logging.Logger) *Service {
	if bookings == nil || catalog == nil {
		panic("suggest: bookings and catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		llm:      llm,
		bookings: bookings,
		catalog:  catalog,
		rollups:  rollups,
		workDay:  workDay,
		tracer:   otel.Tracer("agenda.internal.suggest"),
		logger:   logger,
	}
}

const scheduleSystemPrompt = `You are a scheduling assistant for a beauty salon.
You receive the salon's working hours, how the month is pacing, and one day's
appointment book. Suggest concrete improvements: gaps that could be closed,
appointments that could be moved to free contiguous blocks, and overbooked
stretches. Answer in short bullet points. Do not invent appointments.`

// OptimizeSchedule asks the LLM for improvements to one day's book, framed
// by the month's booking totals.
func (s *Service) OptimizeSchedule(ctx context.Context, date string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "suggest.OptimizeSchedule")
	defer span.End()

	if s.llm == nil {
		return "", ErrUnavailable
	}
	if _, err := scheduling.ParseDate(date); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	appts, err := s.bookings.ListByDate(ctx, date)
	if err != nil {
		return "", fmt.Errorf("suggest: load schedule: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\nWorking hours: %02d:00-%02d:00\n",
		date, s.workDay.StartHour, s.workDay.EndHour)
	if s.rollups != nil {
		summary, err := s.rollups.MonthlySummary(ctx, date[:7])
		if err != nil {
			s.logger.Warn("month summary unavailable for schedule prompt", "error", err)
		} else {
			fmt.Fprintf(&b, "Month so far: %d appointments (%d attended, %d cancelled), net %d cents\n",
				summary.AppointmentCount, summary.AttendedCount, summary.CancelledCount, summary.NetCents)
		}
	}
	b.WriteString("\nAppointments:\n")
	if len(appts) == 0 {
		b.WriteString("(none)\n")
	}
	for _, a := range appts {
		if a.Status == appointments.StatusCancelled {
			continue
		}
		names := make([]string, 0, len(a.Procedures))
		for _, p := range a.Procedures {
			names = append(names, p.Name)
		}
		fmt.Fprintf(&b, "- %s, %d min, %s (%s)\n",
			a.Time, a.TotalDurationMinutes, strings.Join(names, ", "), a.Status)
	}

	resp, err := s.llm.Complete(ctx, LLMRequest{
		System:      scheduleSystemPrompt,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: b.String()}},
		MaxTokens:   1024,
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

const procedureSystemPrompt = `You are an assistant for a beauty salon's front desk.
Given a customer's visit history and the current service catalog, suggest up
to three services the customer is likely to book next, each with a one-line
reason. Only suggest services from the catalog.`

// SuggestProcedures asks the LLM for upsell candidates for a customer.
func (s *Service) SuggestProcedures(ctx context.Context, q ProcedureQuery) (string, error) {
	ctx, span := s.tracer.Start(ctx, "suggest.SuggestProcedures")
	defer span.End()

	if s.llm == nil {
		return "", ErrUnavailable
	}
	if strings.TrimSpace(q.CustomerName) == "" {
		return "", fmt.Errorf("%w: customer name is required", ErrInvalid)
	}

	catalog, err := s.catalog.List(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest: load catalog: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Customer: %s\n", q.CustomerName)
	if len(q.PastProcedures) > 0 {
		fmt.Fprintf(&b, "Past services: %s\n", strings.Join(q.PastProcedures, ", "))
	}
	if strings.TrimSpace(q.Notes) != "" {
		fmt.Fprintf(&b, "Notes: %s\n", q.Notes)
	}
	b.WriteString("\nCatalog:\n")
	for _, p := range catalog {
		fmt.Fprintf(&b, "- %s (%d min)\n", p.Name, p.DurationMinutes)
	}

	resp, err := s.llm.Complete(ctx, LLMRequest{
		System:      procedureSystemPrompt,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: b.String()}},
		MaxTokens:   512,
		Temperature: 0.6,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
