package finance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/studiobelle/agenda/internal/observability/metrics"
)

type stubRepo struct {
	entries     []ManualEntry
	summary     *MonthlySummary
	created     *ManualEntry
	deleted     string
	deletedDate string
	deleteErr   error
	calls       int
}

func (s *stubRepo) CreateEntry(_ context.Context, e ManualEntry) (*ManualEntry, error) {
	e.ID = "generated"
	e.CreatedAt = time.Now()
	s.created = &e
	return &e, nil
}

func (s *stubRepo) ListEntriesByMonth(_ context.Context, _ string) ([]ManualEntry, error) {
	return s.entries, nil
}

func (s *stubRepo) DeleteEntry(_ context.Context, id string) (string, error) {
	s.deleted = id
	if s.deleteErr != nil {
		return "", s.deleteErr
	}
	return s.deletedDate, nil
}

func (s *stubRepo) MonthlySummary(_ context.Context, month string) (*MonthlySummary, error) {
	s.calls++
	if s.summary != nil {
		return s.summary, nil
	}
	return &MonthlySummary{Month: month}, nil
}

func TestSummaryRejectsBadMonth(t *testing.T) {
	h := NewHandler(&stubRepo{}, nil, prometheus.NewRegistry(), nil)
	req := httptest.NewRequest(http.MethodGet, "/summary?month=March", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSummaryIncludesSlotLatency(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(registry)
	m.ObserveSlotCompute(0.005)
	m.ObserveSlotCompute(0.008)

	repo := &stubRepo{summary: &MonthlySummary{Month: "2026-03", NetCents: 80000}}
	h := NewHandler(repo, nil, registry, nil)

	req := httptest.NewRequest(http.MethodGet, "/summary?month=2026-03", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.NetCents != 80000 {
		t.Fatalf("unexpected summary: %+v", resp.MonthlySummary)
	}
	if resp.SlotLatency.Total != 2 {
		t.Fatalf("expected 2 latency samples, got %d", resp.SlotLatency.Total)
	}
	if resp.SlotLatency.P95Ms <= 0 {
		t.Fatalf("expected positive p95, got %f", resp.SlotLatency.P95Ms)
	}
}

func TestCreateEntryValidatesBody(t *testing.T) {
	repo := &stubRepo{}
	h := NewHandler(repo, nil, prometheus.NewRegistry(), nil)

	body := `{"type":"refund","description":"x","amount_cents":100,"date":"2026-03-01"}`
	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if repo.created != nil {
		t.Fatalf("invalid entry should not reach the repository")
	}
}

func TestCreateEntryPersists(t *testing.T) {
	repo := &stubRepo{}
	h := NewHandler(repo, nil, prometheus.NewRegistry(), nil)

	body := `{"type":"income","description":"Gift card sale","amount_cents":5000,"date":"2026-03-01"}`
	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.created == nil || repo.created.Type != EntryIncome {
		t.Fatalf("expected persisted income entry, got %+v", repo.created)
	}
}

func TestDeleteEntryNotFound(t *testing.T) {
	repo := &stubRepo{deleteErr: ErrNotFound}
	h := NewHandler(repo, nil, prometheus.NewRegistry(), nil)

	req := httptest.NewRequest(http.MethodDelete, "/entries/e9", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if repo.deleted != "e9" {
		t.Fatalf("expected delete of e9, got %q", repo.deleted)
	}
}

func TestDeleteEntryInvalidatesCachedSummary(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	if err := cache.Set(ctx, &MonthlySummary{Month: "2026-03", ManualIncomeCents: 10000}); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	repo := &stubRepo{deletedDate: "2026-03-10", summary: &MonthlySummary{Month: "2026-03"}}
	h := NewHandler(repo, cache, prometheus.NewRegistry(), nil)

	req := httptest.NewRequest(http.MethodDelete, "/entries/e1", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/summary?month=2026-03", nil)
	rec = httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ManualIncomeCents != 0 {
		t.Fatalf("summary served stale ledger income %d after delete", resp.ManualIncomeCents)
	}
	if repo.calls != 1 {
		t.Fatalf("expected summary recompute after delete, repo called %d times", repo.calls)
	}
}

func TestErrorResponsesAreJSON(t *testing.T) {
	h := NewHandler(&stubRepo{}, nil, prometheus.NewRegistry(), nil)
	req := httptest.NewRequest(http.MethodGet, "/summary?month=March", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json error body, got %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("expected error message in body, got %q", rec.Body.String())
	}
}
