package http

import (
	"errors"
	"net/http"

	applog "myrupee/internal/log"
	"myrupee/internal/theme"
)

type themeResponse struct {
	Theme theme.Theme `json:"theme"`
}

// themeState loads the caller's preference from the theme cookie, with the
// color-scheme client hint as the fallback.
func (s *Server) themeState(w http.ResponseWriter, r *http.Request) *theme.State {
	w.Header().Set("Accept-CH", "Sec-CH-Prefers-Color-Scheme")
	w.Header().Add("Vary", "Sec-CH-Prefers-Color-Scheme")
	st := theme.NewState(theme.NewCookieStorage(w, r), applog.FromContext(r.Context()).WithComponent(applog.ComponentTheme).Slog())
	st.Init(theme.PrefersDark(r))
	return st
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	st := s.themeState(w, r)
	NewJSONResponse().Body(themeResponse{Theme: st.Theme()}).Write(w)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	st := s.themeState(w, r)
	NewJSONResponse().Body(themeResponse{Theme: st.Toggle()}).Write(w)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r, maxBodyBytes)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	t, err := theme.Parse(p.Get("theme"))
	if err != nil {
		if errors.Is(err, theme.ErrInvalidTheme) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		BadRequestError(err.Error()).Write(w)
		return
	}
	st := s.themeState(w, r)
	if err := st.Set(t); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(themeResponse{Theme: st.Theme()}).Write(w)
}
