package http

import (
	"errors"
	"net/http"

	"myrupee/internal/auth"
	applog "myrupee/internal/log"
)

type authResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentAuth)

	p := NewRequestBodyParser(w, r, maxBodyBytes)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	email, password := p.Get("email"), p.GetRaw("password")

	if _, err := s.auth.SignUp(ctx, email, password, p.Get("displayName")); err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			ConflictError(err.Error()).Write(w)
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
			UnprocessableEntityError(err.Error()).Write(w)
		default:
			logger.ErrorContext(ctx, "Sign-up failed", applog.FieldOperation, applog.OpSignUp, "error", err)
			InternalServerError("could not create account").Write(w)
		}
		return
	}

	s.startSession(w, r, email, password, http.StatusCreated)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r, maxBodyBytes)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	s.startSession(w, r, p.Get("email"), p.GetRaw("password"), http.StatusOK)
}

// startSession signs in, opens the live dashboard and hands the token
// back both in the body and as a cookie.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, email, password string, status int) {
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentAuth)

	token, user, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			UnauthorizedError(err.Error()).Write(w)
			return
		}
		logger.ErrorContext(ctx, "Sign-in failed", applog.FieldOperation, applog.OpSignIn, "error", err)
		InternalServerError("could not sign in").Write(w)
		return
	}

	if _, err := s.sessions.Open(ctx, token); err != nil {
		logger.ErrorContext(ctx, "Failed to open session", applog.FieldUserID, user.UID, "error", err)
		InternalServerError("could not open session").Write(w)
		return
	}

	s.setSessionCookie(w, r, token)
	NewJSONResponse().Status(status).Body(authResponse{Token: token, User: user}).Write(w)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := sessionToken(r)
	if token == "" {
		UnauthorizedError("missing session token").Write(w)
		return
	}
	if err := s.sessions.SignOut(ctx, token); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			clearSessionCookie(w, r)
			UnauthorizedError("invalid or expired session").Write(w)
			return
		}
		applog.FromContext(ctx).WithComponent(applog.ComponentAuth).
			ErrorContext(ctx, "Sign-out failed", applog.FieldOperation, applog.OpSignOut, "error", err)
		InternalServerError("could not sign out").Write(w)
		return
	}
	clearSessionCookie(w, r)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
