package auth

import (
	"context"
	"sync"
)

// Session is one signed-in browser session. It is the Provider a session's
// State listens to: the user is present until SignOut revokes the token.
type Session struct {
	svc   *Service
	token string

	mu        sync.Mutex
	user      *User
	listeners map[int]func(*User)
	nextID    int
}

// NewSession wraps a token that Verify has already accepted.
func (s *Service) NewSession(token string, u *User) *Session {
	return &Session{
		svc:       s,
		token:     token,
		user:      u,
		listeners: make(map[int]func(*User)),
	}
}

func (s *Session) OnAuthStateChanged(fn func(*User)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	u := s.user
	s.mu.Unlock()

	fn(u)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.svc.Revoke(s.token)

	s.mu.Lock()
	s.user = nil
	fns := make([]func(*User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(nil)
	}
	return nil
}

func (s *Session) Token() string {
	return s.token
}
