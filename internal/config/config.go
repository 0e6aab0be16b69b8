package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/healthcareplus/echannelling/internal/calendar"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	SessionTTL     time.Duration
	DoctorCacheTTL time.Duration

	// Clinic schedule
	ClinicTimezone        string
	SlotDayStart          string
	SlotDayEnd            string
	SlotInterval          time.Duration
	MinPatientAge         int
	RequireStrongPassword bool

	// Legacy PHP backend. Empty base URL keeps submissions local.
	SubmissionBaseURL string
	SubmissionAPIKey  string
	SubmissionTimeout time.Duration

	CORSAllowedOrigins []string
	AdminJWTSecret     string
	RateLimitRPS       float64
	RateLimitBurst     int

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SendGridReplyTo   string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		DoctorCacheTTL: getEnvAsDuration("DOCTOR_CACHE_TTL", 5*time.Minute),

		ClinicTimezone:        getEnv("CLINIC_TIMEZONE", "Asia/Colombo"),
		SlotDayStart:          getEnv("SLOT_DAY_START", "09:00"),
		SlotDayEnd:            getEnv("SLOT_DAY_END", "17:00"),
		SlotInterval:          getEnvAsDuration("SLOT_INTERVAL", 30*time.Minute),
		MinPatientAge:         getEnvAsInt("MIN_PATIENT_AGE", 18),
		RequireStrongPassword: getEnvAsBool("REQUIRE_STRONG_PASSWORD", false),

		SubmissionBaseURL: strings.TrimRight(getEnv("SUBMISSION_BASE_URL", ""), "/"),
		SubmissionAPIKey:  getEnv("SUBMISSION_API_KEY", ""),
		SubmissionTimeout: getEnvAsDuration("SUBMISSION_TIMEOUT", 10*time.Second),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "HealthCare+"),
		SendGridReplyTo:   getEnv("SENDGRID_REPLY_TO", ""),
	}
}

// Location resolves ClinicTimezone, falling back to UTC when unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlotWindow builds the bookable day window from the SLOT_* settings.
func (c *Config) SlotWindow() (calendar.Window, error) {
	start, err := calendar.ParseTimeOfDay(c.SlotDayStart)
	if err != nil {
		return calendar.Window{}, fmt.Errorf("config: SLOT_DAY_START: %w", err)
	}
	end, err := calendar.ParseTimeOfDay(c.SlotDayEnd)
	if err != nil {
		return calendar.Window{}, fmt.Errorf("config: SLOT_DAY_END: %w", err)
	}
	w := calendar.Window{Start: start, End: end, Interval: c.SlotInterval}
	if err := w.Validate(); err != nil {
		return calendar.Window{}, fmt.Errorf("config: slot window: %w", err)
	}
	return w, nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
