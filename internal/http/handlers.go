package http

import (
	"context"
	"net/http"
	"time"

	"myrupee/internal/auth"
	"myrupee/internal/dashboard"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the backing store and reports live session and rate
// limiter counts.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]any{}

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status = "not_ready"
			code = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "ok"
	}
	checks["sessions"] = s.sessions.Len()
	checks["rate_limiter"] = map[string]any{
		"active_clients":   s.limiter.ActiveClients(),
		"limited_requests": s.limiter.GetMetrics().LimitedRequests,
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

type meResponse struct {
	User    *auth.User `json:"user"`
	Loading bool       `json:"loading"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).Dashboard.Auth()
	NewJSONResponse().Body(meResponse{User: snap.User, Loading: snap.Loading}).Write(w)
}

type dashboardResponse struct {
	dashboard.Summary
	Notices []dashboard.Notice `json:"notices"`
	Error   string             `json:"error,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d := sessionFrom(r.Context()).Dashboard
	resp := dashboardResponse{
		Summary: d.Summary(),
		Notices: d.Notices(),
	}
	if resp.Notices == nil {
		resp.Notices = []dashboard.Notice{}
	}
	if err := d.Err(); err != nil {
		resp.Error = "Live updates are unavailable: " + err.Error()
	}
	NewJSONResponse().Body(resp).Write(w)
}

// handleResetBalance acknowledges the reset action. Balances are always
// derived from the stored transactions, so nothing changes.
func (s *Server) handleResetBalance(w http.ResponseWriter, r *http.Request) {
	d := sessionFrom(r.Context()).Dashboard
	d.Reset(r.Context())
	NewJSONResponse().Body(map[string]any{
		"status": "ok",
		"totals": d.Summary().Totals,
	}).Write(w)
}
