package suggest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/studiobelle/agenda/pkg/logging"
)

// Handler exposes the suggestion endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("suggest: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the suggestion endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/schedule", h.optimizeSchedule)
	r.Post("/procedures", h.suggestProcedures)
	return r
}

type suggestionResponse struct {
	Suggestion string `json:"suggestion"`
}

func (h *Handler) optimizeSchedule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Date) == "" {
		writeError(w, http.StatusBadRequest, "date is required (YYYY-MM-DD)")
		return
	}

	text, err := h.svc.OptimizeSchedule(r.Context(), body.Date)
	if err != nil {
		h.respondError(w, "schedule suggestion failed", err)
		return
	}
	writeJSON(w, suggestionResponse{Suggestion: text})
}

func (h *Handler) suggestProcedures(w http.ResponseWriter, r *http.Request) {
	var query ProcedureQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text, err := h.svc.SuggestProcedures(r.Context(), query)
	if err != nil {
		h.respondError(w, "procedure suggestion failed", err)
		return
	}
	writeJSON(w, suggestionResponse{Suggestion: text})
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "suggestions disabled (llm not configured)")
		return
	}
	if errors.Is(err, ErrInvalid) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
