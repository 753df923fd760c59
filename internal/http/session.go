package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"myrupee/internal/auth"
	"myrupee/internal/dashboard"
	applog "myrupee/internal/log"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session"

type entryKey struct{}

// sessionToken returns the bearer token, falling back to the session
// cookie.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// requireSession resolves the caller's live session and stores it in the
// request context.
func (s *Server) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			UnauthorizedError("missing session token").Write(w)
			return
		}
		entry, err := s.sessions.Open(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				UnauthorizedError("invalid or expired session").Write(w)
				return
			}
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to open session", "error", err)
			InternalServerError("could not open session").Write(w)
			return
		}
		ctx := context.WithValue(r.Context(), entryKey{}, entry)
		next(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *dashboard.Entry {
	e, _ := ctx.Value(entryKey{}).(*dashboard.Entry)
	return e
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
