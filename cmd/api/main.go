package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/healthcareplus/echannelling/internal/api/router"
	"github.com/healthcareplus/echannelling/internal/app/bootstrap"
	"github.com/healthcareplus/echannelling/internal/appointments"
	appconfig "github.com/healthcareplus/echannelling/internal/config"
	"github.com/healthcareplus/echannelling/internal/doctors"
	"github.com/healthcareplus/echannelling/internal/flows"
	"github.com/healthcareplus/echannelling/internal/http/handlers"
	"github.com/healthcareplus/echannelling/internal/notify"
	"github.com/healthcareplus/echannelling/internal/observability/metrics"
	"github.com/healthcareplus/echannelling/internal/wizard"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting echannelling API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	handler, cleanup, err := setupServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SubmissionTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupServer wires every component from cfg. cleanup stops the session
// sweeper and releases the database pool and Redis client.
func setupServer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (http.Handler, func(), error) {
	window, err := cfg.SlotWindow()
	if err != nil {
		return nil, nil, err
	}

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	cleanup := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		if pool != nil {
			pool.Close()
		}
	}

	stores := bootstrap.BuildStores(pool, redisClient, cfg, logger)
	closeBackends := cleanup
	cleanup = func() {
		stores.Close()
		closeBackends()
	}
	notifier := notify.NewService(bootstrap.BuildEmailSender(cfg, logger), logger)
	submitter, apptSvc, err := bootstrap.BuildSubmitter(cfg, stores, notifier, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	registry := wizard.NewRegistry(wizard.Options{
		MinPatientAge:         cfg.MinPatientAge,
		RequireStrongPassword: cfg.RequireStrongPassword,
		Location:              cfg.Location(),
		SlotWindow:            window,
	})
	metricsHandler, wizardMetrics := setupMetrics()

	svc, err := flows.NewService(flows.Config{
		Registry:     registry,
		Sessions:     stores.Sessions,
		Doctors:      stores.Doctors,
		Availability: bootstrap.BuildAvailability(cfg, stores, logger),
		Submitter:    submitter,
		Window:       window,
		Metrics:      wizardMetrics,
		Logger:       logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	r := router.New(&router.Config{
		Logger:             logger,
		Wizards:            handlers.NewWizardHandler(svc, registry.Now, logger),
		Validation:         handlers.NewValidationHandler(registry, logger),
		Doctors:            doctors.NewHandler(stores.Doctors, logger),
		Appointments:       appointments.NewHandler(apptSvc, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		HealthCheck:        bootstrap.HealthCheck(pool, redisClient),
	})
	return r, cleanup, nil
}

func setupMetrics() (http.Handler, *metrics.WizardMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewWizardMetrics(reg)
}
