package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/healthcareplus/echannelling/internal/calendar"
)

func newAdminRouter(t *testing.T) (http.Handler, *Appointment) {
	t.Helper()
	svc := NewService(NewInMemoryRepository(), nil)
	appt, err := svc.Book(context.Background(), BookRequest{
		DoctorID:    "7",
		Date:        calendar.NewDate(2025, 7, 1),
		Time:        calendar.MustTime("10:00"),
		PatientName: "Kamal Perera",
	})
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(svc, nil)
	h.now = func() time.Time { return time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Get("/admin/doctors/{doctorID}/appointments", h.ListByDoctor)
	r.Get("/admin/appointments/{reference}", h.GetByReference)
	return r, appt
}

func TestHandlerListByDoctor(t *testing.T) {
	router, appt := newAdminRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/doctors/7/appointments", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp ListAppointmentsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || resp.Appointments[0].Reference != appt.Reference {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.From.String() != "2025-06-20" || resp.To.String() != "2025-07-20" {
		t.Fatalf("unexpected default range %s..%s", resp.From, resp.To)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/doctors/7/appointments?from=2025-07-02&to=2025-07-31", nil))
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Count != 0 {
		t.Fatalf("expected empty window, got %d", resp.Count)
	}
}

func TestHandlerListByDoctorBadRange(t *testing.T) {
	router, _ := newAdminRouter(t)
	for _, q := range []string{"?from=July", "?to=2025-13-01", "?from=2025-07-10&to=2025-07-01"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/doctors/7/appointments"+q, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestHandlerGetByReference(t *testing.T) {
	router, appt := newAdminRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/appointments/"+appt.Reference, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/appointments/ECH-NOPE", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
