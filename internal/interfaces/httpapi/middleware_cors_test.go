package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsRequest(t *testing.T, handler http.Handler, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/v1/mappings", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_ConfiguredOrigin(t *testing.T) {
	handler := CORS([]string{"https://goldenstat.se"}, okHandler())

	rec := corsRequest(t, handler, http.MethodGet, "https://goldenstat.se")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://goldenstat.se" {
		t.Fatalf("unexpected Access-Control-Allow-Origin: %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", got)
	}
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	handler := CORS([]string{"https://goldenstat.se"}, okHandler())

	rec := corsRequest(t, handler, http.MethodGet, "https://elsewhere.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no Access-Control-Allow-Origin, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("request should still reach the handler, got status %d", rec.Code)
	}
}

func TestCORS_WildcardPreflight(t *testing.T) {
	handler := CORS([]string{"*"}, okHandler())

	rec := corsRequest(t, handler, http.MethodOptions, "https://goldenstat.se")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected Access-Control-Allow-Origin: %q", got)
	}
}

func TestCORS_NoOriginPassesThrough(t *testing.T) {
	handler := CORS([]string{"https://goldenstat.se"}, okHandler())

	rec := corsRequest(t, handler, http.MethodGet, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS headers without an Origin, got %q", got)
	}
}
