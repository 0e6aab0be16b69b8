package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/healthcareplus/echannelling/internal/config"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, m := setupMetrics()
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveSubmission("booking", "success", 0.1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "echannelling_wizard_submissions_total") {
		t.Fatalf("expected submissions counter to be exported")
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Fatalf("expected go collector output")
	}
}

func testConfig(t *testing.T) *appconfig.Config {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "REDIS_ADDR", "SUBMISSION_BASE_URL", "SENDGRID_API_KEY", "ADMIN_JWT_SECRET"} {
		t.Setenv(key, "")
	}
	return appconfig.Load()
}

func TestSetupServerInMemory(t *testing.T) {
	cfg := testConfig(t)
	handler, cleanup, err := setupServer(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer cleanup()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected healthy server, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/wizards", bytes.NewBufferString(`{"type":"registration"}`))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/appointments/ECH-00000000", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("admin routes should not exist without a secret, got %d", rr.Code)
	}
}

func TestSetupServerRejectsBadWindow(t *testing.T) {
	cfg := testConfig(t)
	cfg.SlotDayStart = "18:00"
	if _, _, err := setupServer(context.Background(), cfg, logging.New("error")); err == nil {
		t.Fatalf("expected error for inverted slot window")
	}
}
