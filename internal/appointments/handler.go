package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/healthcareplus/echannelling/internal/calendar"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

// defaultListDays is the admin listing span when to is omitted.
const defaultListDays = 30

// Handler serves the staff view of booked appointments.
type Handler struct {
	svc    *Service
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates a new appointments admin handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger, now: time.Now}
}

// ListAppointmentsResponse is the response for listing a doctor's appointments
type ListAppointmentsResponse struct {
	DoctorID     string        `json:"doctor_id"`
	From         calendar.Date `json:"from"`
	To           calendar.Date `json:"to"`
	Appointments []Appointment `json:"appointments"`
	Count        int           `json:"count"`
}

// ListByDoctor handles GET /admin/doctors/{doctorID}/appointments
func (h *Handler) ListByDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	if doctorID == "" {
		http.Error(w, "missing doctor id", http.StatusBadRequest)
		return
	}

	from := calendar.DateOf(h.now())
	if raw := r.URL.Query().Get("from"); raw != "" {
		d, err := calendar.ParseDate(raw)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		from = d
	}
	to := from.AddDays(defaultListDays)
	if raw := r.URL.Query().Get("to"); raw != "" {
		d, err := calendar.ParseDate(raw)
		if err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
		to = d
	}
	if to.Before(from) {
		http.Error(w, "to must not be before from", http.StatusBadRequest)
		return
	}

	list, err := h.svc.ListByDoctor(r.Context(), doctorID, from, to)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListAppointmentsResponse{
		DoctorID:     doctorID,
		From:         from,
		To:           to,
		Appointments: list,
		Count:        len(list),
	})
}

// GetByReference handles GET /admin/appointments/{reference}
func (h *Handler) GetByReference(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "reference")
	appt, err := h.svc.Get(r.Context(), ref)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load appointment", "error", err, "reference", ref)
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
