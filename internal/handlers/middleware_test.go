package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	t.Parallel()
	handler := MiddlewareRateLimit(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 4)
	for range 4 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tmdb", nil))
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst rejected: %v", codes)
	}
	if codes[3] != http.StatusTooManyRequests {
		t.Fatalf("overflow not limited: %v", codes)
	}
}

func TestRateLimitExemptsProbes(t *testing.T) {
	t.Parallel()
	handler := MiddlewareRateLimit(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Exhaust the bucket.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tmdb", nil))

	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s limited: %d", path, rec.Code)
		}
	}
}

func TestNormalizeRoute(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"/health":                "/health",
		"/metrics":               "/metrics",
		"/api/tmdb":              "/api/tmdb",
		"/api/favorites":         "/api/favorites",
		"/api/favorites/603":     "/api/favorites/{movieID}",
		"/":                      "/spa",
		"/assets/index-abc12.js": "/spa",
	}
	for in, want := range cases {
		if got := normalizeRoute(in); got != want {
			t.Fatalf("normalizeRoute(%q) = %q, want %q", in, got, want)
		}
	}
}
