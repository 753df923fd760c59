package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "myrupee/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	sl := applog.NewStructuredLogger(applog.New(applog.Config{Level: slog.LevelInfo, Output: &buf}))
	m := NewMiddleware(func(*http.Request) string { return "10.0.0.1" }, sl)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	if !strings.HasPrefix(seen, "req_") || len(seen) != 20 {
		t.Fatalf("unexpected request id %q", seen)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header %q, want %q", rec.Header().Get(HeaderRequestID), seen)
	}
	if !strings.Contains(buf.String(), "status_code=418") {
		t.Fatalf("completion not logged: %q", buf.String())
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Fatalf("TotalRequests = %d", got)
	}
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	m := NewMiddleware(nil, nil)
	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc-123" {
		t.Fatalf("seen = %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "bad id\n")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "bad id\n" {
		t.Fatal("invalid incoming id was kept")
	}
	if got := m.GetMetrics().ServerErrors; got != 2 {
		t.Fatalf("ServerErrors = %d", got)
	}
}
