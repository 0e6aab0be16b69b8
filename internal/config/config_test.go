package config

import (
	"testing"
	"time"

	"github.com/healthcareplus/echannelling/internal/calendar"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "SESSION_TTL", "SLOT_DAY_START", "SLOT_DAY_END", "SLOT_INTERVAL", "MIN_PATIENT_AGE", "CORS_ALLOWED_ORIGINS", "SUBMISSION_BASE_URL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" || cfg.IsProduction() {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected default session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.MinPatientAge != 18 {
		t.Fatalf("expected default min age, got %d", cfg.MinPatientAge)
	}
	if cfg.RequireStrongPassword {
		t.Fatalf("expected strong passwords to be advisory by default")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard cors, got %v", cfg.CORSAllowedOrigins)
	}

	w, err := cfg.SlotWindow()
	if err != nil {
		t.Fatalf("default slot window: %v", err)
	}
	if w != calendar.DefaultWindow() {
		t.Fatalf("expected default window, got %+v", w)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("MIN_PATIENT_AGE", "16")
	t.Setenv("REQUIRE_STRONG_PASSWORD", "true")
	t.Setenv("SUBMISSION_BASE_URL", "https://legacy.example.lk/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.lk, ,https://b.lk")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SLOT_DAY_START", "08:00")
	t.Setenv("SLOT_DAY_END", "12:00")
	t.Setenv("SLOT_INTERVAL", "15m")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production env")
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected session ttl override, got %s", cfg.SessionTTL)
	}
	if cfg.MinPatientAge != 16 || !cfg.RequireStrongPassword {
		t.Fatalf("expected registration overrides, got %d %v", cfg.MinPatientAge, cfg.RequireStrongPassword)
	}
	if cfg.SubmissionBaseURL != "https://legacy.example.lk" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.SubmissionBaseURL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.lk" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate override, got %v", cfg.RateLimitRPS)
	}

	w, err := cfg.SlotWindow()
	if err != nil {
		t.Fatalf("slot window: %v", err)
	}
	if got := len(w.Times()); got != 16 {
		t.Fatalf("expected 16 quarter-hour slots, got %d", got)
	}
}

func TestSlotWindowErrors(t *testing.T) {
	cfg := &Config{SlotDayStart: "9am", SlotDayEnd: "17:00", SlotInterval: time.Minute}
	if _, err := cfg.SlotWindow(); err == nil {
		t.Fatalf("expected parse error")
	}
	cfg = &Config{SlotDayStart: "17:00", SlotDayEnd: "09:00", SlotInterval: 30 * time.Minute}
	if _, err := cfg.SlotWindow(); err == nil {
		t.Fatalf("expected inverted window error")
	}
}

func TestLocationFallback(t *testing.T) {
	cfg := &Config{ClinicTimezone: "Mars/Olympus"}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC fallback")
	}
	cfg.ClinicTimezone = "UTC"
	if cfg.Location().String() != "UTC" {
		t.Fatalf("expected UTC, got %s", cfg.Location())
	}
}
