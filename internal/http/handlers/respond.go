package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/healthcareplus/echannelling/internal/doctors"
	"github.com/healthcareplus/echannelling/internal/flows"
	"github.com/healthcareplus/echannelling/internal/session"
	"github.com/healthcareplus/echannelling/internal/validation"
	"github.com/healthcareplus/echannelling/internal/wizard"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error     string                  `json:"error"`
	Errors    []validation.FieldError `json:"errors,omitempty"`
	Retryable bool                    `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, flows.ErrInvalidInput), errors.Is(err, wizard.ErrUnknownType):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound), errors.Is(err, wizard.ErrStepNotFound), errors.Is(err, doctors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrStepLocked), errors.Is(err, wizard.ErrSubmitted),
		errors.Is(err, session.ErrConflict), errors.Is(err, flows.ErrNoDoctorSelected),
		errors.Is(err, flows.ErrDoctorUnavailable), errors.Is(err, flows.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrSubmissionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, logger *logging.Logger, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("wizard request failed", "op", op, "error", err)
		jsonError(w, "internal error", status)
		return
	}
	writeJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		Retryable: status == http.StatusBadGateway,
	})
}
