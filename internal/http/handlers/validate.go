package handlers

import (
	"net/http"
	"strings"

	"github.com/healthcareplus/echannelling/internal/validation"
	"github.com/healthcareplus/echannelling/internal/wizard"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

// ValidationHandler runs the eager checks the forms call on blur.
type ValidationHandler struct {
	registry *wizard.Registry
	logger   *logging.Logger
}

// NewValidationHandler creates a new validation handler.
func NewValidationHandler(registry *wizard.Registry, logger *logging.Logger) *ValidationHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ValidationHandler{registry: registry, logger: logger}
}

// FieldRequest is the body of POST /api/validate/field.
type FieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// PasswordRequest is the body of POST /api/validate/password-strength.
type PasswordRequest struct {
	Password string `json:"password"`
}

// Field handles POST /api/validate/field. Failures are data, so the
// status is 200 either way.
func (h *ValidationHandler) Field(w http.ResponseWriter, r *http.Request) {
	var req FieldRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req.Field = strings.TrimSpace(req.Field)
	if req.Field == "" {
		jsonError(w, "field is required", http.StatusBadRequest)
		return
	}
	res := validation.ForField(req.Field, req.Value, h.registry.Now(), h.registry.MinPatientAge())
	writeJSON(w, http.StatusOK, res)
}

// PasswordStrength handles POST /api/validate/password-strength
func (h *ValidationHandler) PasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, validation.PasswordStrength(req.Password))
}
