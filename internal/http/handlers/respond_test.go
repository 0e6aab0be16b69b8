package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/healthcareplus/echannelling/internal/flows"
	"github.com/healthcareplus/echannelling/internal/session"
	"github.com/healthcareplus/echannelling/internal/wizard"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		session.ErrConflict:                                            http.StatusConflict,
		fmt.Errorf("flows: %w", session.ErrNotFound):                   http.StatusNotFound,
		fmt.Errorf("%w: connection reset", wizard.ErrSubmissionFailed): http.StatusBadGateway,
		fmt.Errorf("%w: step 3 requires step 2", wizard.ErrStepLocked): http.StatusConflict,
		fmt.Errorf("%w: 5", flows.ErrDoctorUnavailable):                http.StatusConflict,
		flows.ErrSubmitInProgress:                                      http.StatusConflict,
		errors.New("redis: connection pool timeout"):                   http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("statusFor(%v) = %d, want %d", err, got, want)
		}
	}
}

func TestWriteServiceErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, logging.NewWithWriter("error", &discard{}), "get", errors.New("dial tcp 10.0.0.5:6379: refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "internal error" || body.Retryable {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonError(rec, "oops", http.StatusTeapot)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content type application/json, got %q", ct)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
