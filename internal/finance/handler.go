package finance

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/studiobelle/agenda/internal/observability/metrics"
	"github.com/studiobelle/agenda/pkg/logging"
)

type repository interface {
	CreateEntry(ctx context.Context, e ManualEntry) (*ManualEntry, error)
	ListEntriesByMonth(ctx context.Context, month string) ([]ManualEntry, error)
	DeleteEntry(ctx context.Context, id string) (string, error)
	MonthlySummary(ctx context.Context, month string) (*MonthlySummary, error)
}

type summaryCache interface {
	Get(ctx context.Context, month string) (*MonthlySummary, error)
	Set(ctx context.Context, s *MonthlySummary) error
}

// SlotLatencySnapshot summarizes availability-computation latency from the
// in-process Prometheus histogram.
type SlotLatencySnapshot struct {
	Total int64   `json:"total"`
	P90Ms float64 `json:"p90_ms"`
	P95Ms float64 `json:"p95_ms"`
}

type summaryResponse struct {
	*MonthlySummary
	SlotLatency SlotLatencySnapshot `json:"slot_latency"`
}

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Handler serves the manual ledger and the monthly financial summary.
type Handler struct {
	repo     repository
	cache    summaryCache
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

// NewHandler creates a finance handler. cache may be nil when Redis is not
// configured; the summary is then computed on every request.
func NewHandler(repo repository, cache summaryCache, gatherer prometheus.Gatherer, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("finance: repository required")
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, cache: cache, gatherer: gatherer, logger: logger}
}

// Routes mounts the finance endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/entries", h.listEntries)
	r.Post("/entries", h.createEntry)
	r.Delete("/entries/{id}", h.deleteEntry)
	r.Get("/summary", h.summary)
	return r
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if !monthPattern.MatchString(month) {
		writeError(w, http.StatusBadRequest, "month query parameter required (YYYY-MM)")
		return
	}
	entries, err := h.repo.ListEntriesByMonth(r.Context(), month)
	if err != nil {
		h.logger.Error("failed to list ledger entries", "month", month, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if entries == nil {
		entries = []ManualEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	var entry ManualEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.repo.CreateEntry(r.Context(), entry)
	if err != nil {
		h.logger.Error("failed to create ledger entry", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.invalidate(r.Context(), created.Date)
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	date, err := h.repo.DeleteEntry(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete ledger entry", "entry_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.invalidate(r.Context(), date)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if !monthPattern.MatchString(month) {
		writeError(w, http.StatusBadRequest, "month query parameter required (YYYY-MM)")
		return
	}

	summary := h.cachedSummary(r.Context(), month)
	if summary == nil {
		var err error
		summary, err = h.repo.MonthlySummary(r.Context(), month)
		if err != nil {
			h.logger.Error("failed to compute monthly summary", "month", month, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if h.cache != nil {
			if err := h.cache.Set(r.Context(), summary); err != nil {
				h.logger.Warn("failed to cache monthly summary", "month", month, "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		MonthlySummary: summary,
		SlotLatency:    snapshotSlotLatency(h.gatherer),
	})
}

func (h *Handler) cachedSummary(ctx context.Context, month string) *MonthlySummary {
	if h.cache == nil {
		return nil
	}
	cached, err := h.cache.Get(ctx, month)
	if err != nil {
		h.logger.Warn("summary cache read failed", "month", month, "error", err)
		return nil
	}
	return cached
}

func (h *Handler) invalidate(ctx context.Context, date string) {
	type invalidator interface {
		Invalidate(ctx context.Context, month string) error
	}
	if inv, ok := h.cache.(invalidator); ok && len(date) >= 7 {
		if err := inv.Invalidate(ctx, date[:7]); err != nil {
			h.logger.Warn("summary cache invalidation failed", "error", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func snapshotSlotLatency(gatherer prometheus.Gatherer) SlotLatencySnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return SlotLatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == metrics.SlotComputeMetricName {
			family = mf
			break
		}
	}
	if family == nil {
		return SlotLatencySnapshot{}
	}

	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64
	for _, metric := range family.Metric {
		if metric == nil {
			continue
		}
		hist := metric.GetHistogram()
		if hist == nil {
			continue
		}
		sampleCount += hist.GetSampleCount()
		for _, b := range hist.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return SlotLatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	return SlotLatencySnapshot{
		Total: int64(sampleCount),
		P90Ms: histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		P95Ms: histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper) * 1000.0,
	}
}

func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 {
		return 0
	}
	if q >= 1 {
		for i := len(uppers) - 1; i >= 0; i-- {
			if !math.IsInf(uppers[i], 1) {
				return uppers[i]
			}
		}
		return 0
	}

	target := q * float64(total)
	var prevUpper, prevCum float64
	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}
		bucketCount := cum - prevCum
		if bucketCount <= 0 || upper == prevUpper {
			return upper
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}
		fraction := (target - prevCum) / bucketCount
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		return prevUpper + fraction*(upper-prevUpper)
	}
	return uppers[len(uppers)-1]
}
