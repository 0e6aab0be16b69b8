package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/healthcareplus/echannelling/internal/calendar"
	"github.com/healthcareplus/echannelling/internal/flows"
	"github.com/healthcareplus/echannelling/internal/validation"
	"github.com/healthcareplus/echannelling/internal/wizard"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

// WizardHandler exposes wizard sessions over HTTP.
type WizardHandler struct {
	flows  *flows.Service
	now    func() time.Time
	logger *logging.Logger
}

// NewWizardHandler creates a new wizard handler. now decides the default
// calendar month; nil means time.Now.
func NewWizardHandler(svc *flows.Service, now func() time.Time, logger *logging.Logger) *WizardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &WizardHandler{flows: svc, now: now, logger: logger}
}

// Routes mounts every session endpoint on r.
func (h *WizardHandler) Routes(r chi.Router) {
	r.Post("/", h.Start)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Discard)
		r.Patch("/fields", h.SetFields)
		r.Patch("/selection", h.SetSelection)
		r.Post("/advance", h.Advance)
		r.Post("/retreat", h.Retreat)
		r.Post("/jump", h.Jump)
		r.Post("/reset", h.Reset)
		r.Post("/submit", h.Submit)
		r.Get("/summary", h.Summary)
		r.Get("/calendar", h.Calendar)
		r.Get("/slots", h.Slots)
	})
}

// StartRequest is the body of POST /api/wizards.
type StartRequest struct {
	Type string `json:"type"`
}

// StepResponse pairs a session view with the gate result that produced it.
type StepResponse struct {
	Session    flows.View        `json:"session"`
	Validation validation.Result `json:"validation"`
}

// JumpRequest is the body of POST /api/wizards/{sessionID}/jump.
type JumpRequest struct {
	Step int `json:"step"`
}

// Start handles POST /api/wizards
func (h *WizardHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	t, err := wizard.ParseType(req.Type)
	if err != nil {
		writeServiceError(w, h.logger, "start", err)
		return
	}
	view, err := h.flows.Start(r.Context(), t)
	if err != nil {
		writeServiceError(w, h.logger, "start", err)
		return
	}
	w.Header().Set("Location", "/api/wizards/"+view.SessionID)
	writeJSON(w, http.StatusCreated, view)
}

// Get handles GET /api/wizards/{sessionID}
func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.flows.Get(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, h.logger, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Discard handles DELETE /api/wizards/{sessionID}
func (h *WizardHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.flows.Discard(r.Context(), sessionID(r)); err != nil {
		writeServiceError(w, h.logger, "discard", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFields handles PATCH /api/wizards/{sessionID}/fields
func (h *WizardHandler) SetFields(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := decodeJSON(w, r, &fields); err != nil {
		jsonError(w, "body must be an object of string values", http.StatusBadRequest)
		return
	}
	view, err := h.flows.SetFields(r.Context(), sessionID(r), fields)
	if err != nil {
		writeServiceError(w, h.logger, "set_fields", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SetSelection handles PATCH /api/wizards/{sessionID}/selection
func (h *WizardHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var patch wizard.SelectionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		jsonError(w, "invalid selection: "+err.Error(), http.StatusBadRequest)
		return
	}
	view, err := h.flows.SetSelection(r.Context(), sessionID(r), patch)
	if err != nil {
		writeServiceError(w, h.logger, "set_selection", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Advance handles POST /api/wizards/{sessionID}/advance
func (h *WizardHandler) Advance(w http.ResponseWriter, r *http.Request) {
	view, res, err := h.flows.Advance(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, h.logger, "advance", err)
		return
	}
	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, StepResponse{Session: view, Validation: res})
}

// Retreat handles POST /api/wizards/{sessionID}/retreat
func (h *WizardHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	view, err := h.flows.Retreat(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, h.logger, "retreat", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Jump handles POST /api/wizards/{sessionID}/jump
func (h *WizardHandler) Jump(w http.ResponseWriter, r *http.Request) {
	var req JumpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	view, err := h.flows.JumpTo(r.Context(), sessionID(r), req.Step)
	if err != nil {
		writeServiceError(w, h.logger, "jump", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Reset handles POST /api/wizards/{sessionID}/reset
func (h *WizardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	view, err := h.flows.Reset(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, h.logger, "reset", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Submit handles POST /api/wizards/{sessionID}/submit
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	out, err := h.flows.Submit(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, h.logger, "submit", err)
		return
	}
	if !out.Validation.OK {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "validation failed",
			Errors: out.Validation.Errors,
		})
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// Summary handles GET /api/wizards/{sessionID}/summary
func (h *WizardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.flows.Summary(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, h.logger, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Calendar handles GET /api/wizards/{sessionID}/calendar?month=YYYY-MM
func (h *WizardHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	year, month := now.Year(), now.Month()
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		t, err := time.Parse("2006-01", raw)
		if err != nil {
			jsonError(w, "month must be YYYY-MM", http.StatusBadRequest)
			return
		}
		year, month = t.Year(), t.Month()
	}
	grid, err := h.flows.Calendar(r.Context(), sessionID(r), year, month)
	if err != nil {
		writeServiceError(w, h.logger, "calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

// SlotsResponse lists the slots of one date.
type SlotsResponse struct {
	Date  calendar.Date            `json:"date"`
	Slots []calendar.SlotCandidate `json:"slots"`
}

// Slots handles GET /api/wizards/{sessionID}/slots?date=YYYY-MM-DD
func (h *WizardHandler) Slots(w http.ResponseWriter, r *http.Request) {
	date, err := calendar.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		jsonError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	slots, err := h.flows.Slots(r.Context(), sessionID(r), date)
	if err != nil {
		writeServiceError(w, h.logger, "slots", err)
		return
	}
	writeJSON(w, http.StatusOK, SlotsResponse{Date: date, Slots: slots})
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}
