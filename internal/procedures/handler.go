package procedures

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studiobelle/agenda/pkg/logging"
)

// Handler provides HTTP endpoints for catalog management.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a new catalog HTTP handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("procedures: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes returns a chi router with catalog routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// List returns the full catalog.
// GET /api/procedures
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	procs, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list procedures", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if procs == nil {
		procs = []Procedure{}
	}
	writeJSON(w, http.StatusOK, procs, h.logger)
}

// Get returns a single procedure.
// GET /api/procedures/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "procedure not found")
			return
		}
		h.logger.Error("failed to get procedure", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, p, h.logger)
}

// Create adds a procedure to the catalog.
// POST /api/procedures
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p Procedure
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.repo.Create(r.Context(), p)
	if err != nil {
		h.logger.Error("failed to create procedure", "name", p.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.logger.Info("procedure created", "id", created.ID, "name", created.Name)
	writeJSON(w, http.StatusCreated, created, h.logger)
}

// Update rewrites a catalog entry.
// PUT /api/procedures/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var p Procedure
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.repo.Update(r.Context(), p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "procedure not found")
			return
		}
		h.logger.Error("failed to update procedure", "id", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.logger.Info("procedure updated", "id", updated.ID, "name", updated.Name)
	writeJSON(w, http.StatusOK, updated, h.logger)
}

// Delete removes a catalog entry.
// DELETE /api/procedures/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "procedure not found")
			return
		}
		h.logger.Error("failed to delete procedure", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.logger.Info("procedure deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
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
