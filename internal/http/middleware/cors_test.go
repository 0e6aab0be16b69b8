package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORSOrigins(t *testing.T) {
	origins := []string{"https://healthcareplus.lk/", "https://*.healthcareplus.lk"}

	cases := []struct {
		name   string
		origin string
		allow  bool
	}{
		{"exact", "https://healthcareplus.lk", true},
		{"case insensitive", "https://HealthCarePlus.lk", true},
		{"subdomain", "https://colombo.healthcareplus.lk", true},
		{"bare suffix is not a subdomain", "https://.healthcareplus.lk", false},
		{"wrong scheme", "http://colombo.healthcareplus.lk", false},
		{"lookalike", "https://evilhealthcareplus.lk", false},
		{"unknown", "https://example.com", false},
		{"no origin", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			h := CORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/doctors", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if !called {
				t.Fatalf("simple requests must reach the handler")
			}
			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tc.allow && got != tc.origin {
				t.Fatalf("expected origin echoed, got %q", got)
			}
			if !tc.allow && got != "" {
				t.Fatalf("expected no allow origin, got %q", got)
			}
		})
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://random.example")
	rec := httptest.NewRecorder()

	CORS([]string{"*"})(http.NotFoundHandler()).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://random.example" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "Location") {
		t.Fatalf("expected Location exposed, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS([]string{"https://healthcareplus.lk"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/wizards/abc/fields", nil)
	req.Header.Set("Origin", "https://healthcareplus.lk")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if called {
		t.Fatalf("preflight must not reach the handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, SessionHeader) {
		t.Fatalf("expected %s in allow headers, got %q", SessionHeader, got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPatch) {
		t.Fatalf("expected PATCH allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/wizards", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for disallowed preflight, got %d", rec.Code)
	}
}
