package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/healthcareplus/echannelling/internal/wizard"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

const (
	bookingPath      = "/api/book_appointment.php"
	registrationPath = "/api/register.php"
	defaultUserAgent = "echannelling-wizard/1.0"
	maxResponseBytes = 1 << 20
)

// RemoteConfig controls the legacy backend client.
type RemoteConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Remote posts finished wizards to the legacy PHP endpoints. It never
// retries: a booking POST is not idempotent on the backend.
type Remote struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewRemote creates a remote submitter.
func NewRemote(cfg RemoteConfig, logger *logging.Logger) (*Remote, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("submission: remote base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Remote{baseURL: baseURL, apiKey: cfg.APIKey, httpClient: httpClient, logger: logger}, nil
}

// envelope is the legacy response body.
type envelope struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

// Submit implements wizard.Submitter.
func (r *Remote) Submit(ctx context.Context, p wizard.Payload) (wizard.Receipt, error) {
	var path string
	switch p.Wizard {
	case wizard.Booking:
		path = bookingPath
	case wizard.Registration:
		path = registrationPath
	default:
		return wizard.Receipt{}, fmt.Errorf("submission: %w: %q", wizard.ErrUnknownType, p.Wizard)
	}

	body, err := json.Marshal(legacyBody(p))
	if err != nil {
		return wizard.Receipt{}, fmt.Errorf("submission: marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return wizard.Receipt{}, fmt.Errorf("submission: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	if r.apiKey != "" {
		req.Header.Set("X-API-Key", r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return wizard.Receipt{}, ctx.Err()
		}
		return wizard.Receipt{}, fmt.Errorf("submission: http error: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return wizard.Receipt{}, fmt.Errorf("submission: read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)
	switch {
	case resp.StatusCode >= 500:
		return wizard.Receipt{}, fmt.Errorf("submission: backend returned status %d", resp.StatusCode)
	case decodeErr != nil:
		return wizard.Receipt{}, fmt.Errorf("submission: decode response (status %d): %w", resp.StatusCode, decodeErr)
	case resp.StatusCode >= 400 || !env.Success:
		reason := firstNonEmpty(env.Error, env.Message, fmt.Sprintf("backend returned status %d", resp.StatusCode))
		r.logger.Warn("legacy backend refused submission", "wizard", p.Wizard, "status", resp.StatusCode, "reason", reason)
		return wizard.Receipt{Success: false, Error: reason}, nil
	}
	return wizard.Receipt{Success: true, Reference: env.Reference}, nil
}

// legacyBody flattens the payload into the form field names the PHP
// scripts read from $_POST-style JSON.
func legacyBody(p wizard.Payload) map[string]string {
	out := make(map[string]string, len(p.Fields)+3)
	for k, v := range p.Fields {
		out[k] = v
	}
	delete(out, wizard.FieldConfirmPassword)
	if p.Wizard == wizard.Booking {
		out["doctor_id"] = p.Selection.DoctorID
		if p.Selection.Date != nil {
			out["appointment_date"] = p.Selection.Date.String()
		}
		if p.Selection.Time != nil {
			out["appointment_time"] = p.Selection.Time.String()
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var _ wizard.Submitter = (*Remote)(nil)
