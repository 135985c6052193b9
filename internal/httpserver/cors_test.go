package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/nutrition-ledger/internal/config"
)

func corsHandler(t *testing.T, credentials bool, called *bool) http.Handler {
	t.Helper()
	cfg := &config.Config{
		CORSAllowedOrigins:   []string{"https://app.example.com"},
		CORSAllowCredentials: credentials,
	}
	return CORSMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORS_PreflightAllowedOrigin(t *testing.T) {
	called := false
	handler := corsHandler(t, false, &called)

	req := httptest.NewRequest(http.MethodOptions, "/v1/ledger/days/05.03.2024/entries", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if called {
		t.Fatal("handler should not be called for preflight")
	}
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("expected Allow-Origin=https://app.example.com, got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != corsAllowMethods {
		t.Errorf("expected Allow-Methods=%s, got %q", corsAllowMethods, got)
	}
	if got := rr.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("expected Max-Age=600, got %q", got)
	}
}

func TestCORS_PreflightDisallowedOrigin(t *testing.T) {
	called := false
	handler := corsHandler(t, false, &called)

	req := httptest.NewRequest(http.MethodOptions, "/v1/calendar", nil)
	req.Header.Set("Origin", "https://evil.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if called {
		t.Fatal("handler should not be called for preflight")
	}
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "" {
		t.Errorf("expected no Allow-Methods header, got %q", got)
	}
}

func TestCORS_NormalRequests(t *testing.T) {
	tests := []struct {
		name        string
		origin      string
		credentials bool
		wantOrigin  string
		wantCreds   string
		wantExpose  string
	}{
		{"allowed with credentials", "https://app.example.com", true, "https://app.example.com", "true", corsExposeHeaders},
		{"allowed without credentials", "https://app.example.com", false, "https://app.example.com", "", corsExposeHeaders},
		{"disallowed origin", "https://evil.com", true, "", "", ""},
		{"no origin header", "", true, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := corsHandler(t, tt.credentials, &called)

			req := httptest.NewRequest(http.MethodGet, "/v1/ledger/days", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if !called {
				t.Fatal("expected inner handler to be called")
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin: expected %q, got %q", tt.wantOrigin, got)
			}
			if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("Allow-Credentials: expected %q, got %q", tt.wantCreds, got)
			}
			if got := rr.Header().Get("Access-Control-Expose-Headers"); got != tt.wantExpose {
				t.Errorf("Expose-Headers: expected %q, got %q", tt.wantExpose, got)
			}
		})
	}
}
