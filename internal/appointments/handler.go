package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/studiobelle/agenda/internal/procedures"
	"github.com/studiobelle/agenda/pkg/logging"
)

// Handler provides HTTP endpoints for appointment management.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new appointments HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("appointments: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns a chi router with appointment routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/availability", h.Availability)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Delete("/{id}", h.Delete)
	return r
}

// List returns appointments for ?date=YYYY-MM-DD or ?month=YYYY-MM.
// GET /api/appointments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		appts []Appointment
		err   error
	)
	switch {
	case r.URL.Query().Get("date") != "":
		appts, err = h.service.ListByDate(r.Context(), r.URL.Query().Get("date"))
	case r.URL.Query().Get("month") != "":
		appts, err = h.service.ListByMonth(r.Context(), r.URL.Query().Get("month"))
	default:
		writeError(w, http.StatusBadRequest, "date or month query parameter required")
		return
	}
	if err != nil {
		h.respondError(w, err, "failed to list appointments")
		return
	}
	if appts == nil {
		appts = []Appointment{}
	}
	writeJSON(w, http.StatusOK, appts, h.logger)
}

// Availability returns free start times for a day and procedure selection.
// GET /api/appointments/availability?date=YYYY-MM-DD&procedures=id,id[&exclude=id]
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date query parameter required")
		return
	}
	var procedureIDs []string
	if raw := r.URL.Query().Get("procedures"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				procedureIDs = append(procedureIDs, id)
			}
		}
	}

	slots, err := h.service.Availability(r.Context(), date, procedureIDs, r.URL.Query().Get("exclude"))
	if err != nil {
		h.respondError(w, err, "failed to compute availability")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "slots": slots}, h.logger)
}

// Get returns a single appointment.
// GET /api/appointments/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err, "failed to get appointment")
		return
	}
	writeJSON(w, http.StatusOK, a, h.logger)
}

// Create books an appointment.
// POST /api/appointments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, err, "failed to create appointment")
		return
	}
	writeJSON(w, http.StatusCreated, created, h.logger)
}

// Update edits an appointment.
// PUT /api/appointments/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, err, "failed to update appointment")
		return
	}
	writeJSON(w, http.StatusOK, updated, h.logger)
}

type statusRequest struct {
	Status Status `json:"status"`
}

// UpdateStatus marks an appointment attended or cancelled.
// PATCH /api/appointments/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	updated, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.respondError(w, err, "failed to update status")
		return
	}
	writeJSON(w, http.StatusOK, updated, h.logger)
}

// Delete removes an appointment.
// DELETE /api/appointments/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err, "failed to delete appointment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondError maps service errors onto HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrSlotUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrNotEditable), errors.Is(err, procedures.ErrNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(logMsg, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *logging.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
