package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllowWindow(t *testing.T) {
	rl, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("4th request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other clients are independent")
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("new window should reset the count")
	}
	if got := rl.GetMetrics().LimitedRequests; got != 1 {
		t.Fatalf("LimitedRequests = %d", got)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 3)
	rl.Allow("a")
	*now = now.Add(11 * time.Minute)
	rl.Allow("b")
	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 1 {
		t.Fatalf("expected only b tracked, got %d", rl.ActiveClients())
	}
}

func TestMiddlewareAppliesSelectively(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	onlyPost := func(r *http.Request) bool { return r.Method == http.MethodPost }
	h := rl.Middleware(func(*http.Request) string { return "ip" }, onlyPost, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("GET should never be limited, got %d", rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first POST got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("second POST got %d", rec.Code)
	}
}
