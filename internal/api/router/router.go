package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/healthcareplus/echannelling/internal/appointments"
	"github.com/healthcareplus/echannelling/internal/doctors"
	"github.com/healthcareplus/echannelling/internal/http/handlers"
	httpmiddleware "github.com/healthcareplus/echannelling/internal/http/middleware"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Wizards            *handlers.WizardHandler
	Validation         *handlers.ValidationHandler
	Doctors            *doctors.Handler
	Appointments       *appointments.Handler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// HealthCheck pings backing stores; nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Ops endpoints
	r.Get("/health", healthHandler(cfg.HealthCheck))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimitRPS > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		}
		if cfg.Wizards != nil {
			api.Route("/wizards", cfg.Wizards.Routes)
		}
		if cfg.Doctors != nil {
			api.Get("/doctors", cfg.Doctors.List)
			api.Get("/doctors/{doctorID}", cfg.Doctors.Get)
			api.Get("/specialties", cfg.Doctors.Specialties)
		}
		if cfg.Validation != nil {
			api.Post("/validate/field", cfg.Validation.Field)
			api.Post("/validate/password-strength", cfg.Validation.PasswordStrength)
		}
	})

	// Clinic staff routes (protected by JWT)
	if cfg.AdminAuthSecret != "" && cfg.Appointments != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Use(httpmiddleware.AdminAudit(cfg.Logger))
			admin.Get("/doctors/{doctorID}/appointments", cfg.Appointments.ListByDoctor)
			admin.Get("/appointments/{reference}", cfg.Appointments.GetByReference)
		})
	}

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
