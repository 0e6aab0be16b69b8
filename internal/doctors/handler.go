package doctors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/healthcareplus/echannelling/pkg/logging"
)

// Handler serves the public doctor directory.
type Handler struct {
	dir    Directory
	logger *logging.Logger
}

// NewHandler creates a new directory handler
func NewHandler(dir Directory, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{dir: dir, logger: logger}
}

// ListDoctorsResponse is the response for listing doctors
type ListDoctorsResponse struct {
	Doctors []Doctor `json:"doctors"`
	Count   int      `json:"count"`
}

// List handles GET /api/doctors
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Specialty: q.Get("specialty"),
		Query:     q.Get("q"),
	}
	if raw := q.Get("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "invalid available flag", http.StatusBadRequest)
			return
		}
		filter.AvailableOnly = available
	}

	list, err := h.dir.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListDoctorsResponse{Doctors: list, Count: len(list)})
}

// Get handles GET /api/doctors/{doctorID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")
	if id == "" {
		http.Error(w, "missing doctor id", http.StatusBadRequest)
		return
	}
	doc, err := h.dir.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load doctor", "error", err, "doctor_id", id)
		http.Error(w, "failed to load doctor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Specialties handles GET /api/specialties
func (h *Handler) Specialties(w http.ResponseWriter, r *http.Request) {
	list, err := h.dir.List(r.Context(), Filter{})
	if err != nil {
		h.logger.Error("failed to list specialties", "error", err)
		http.Error(w, "failed to list specialties", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"specialties": Specialties(list)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
