package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"myrupee/internal/core"
)

// ProfileStore holds the per-user profile documents.
type ProfileStore interface {
	GetProfile(ctx context.Context, uid string) (core.Profile, error)
	CreateProfile(ctx context.Context, uid string, p core.Profile) error
}

// Snapshot is the observable auth state.
type Snapshot struct {
	User    *User `json:"user"`
	Loading bool  `json:"loading"`
}

// State mirrors the provider's session into {user, loading}. Loading is
// true until the provider reports for the first time.
type State struct {
	provider Provider
	profiles ProfileStore
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	user      *User
	loading   bool
	listeners map[int]func(Snapshot)
	nextID    int
}

func NewState(provider Provider, profiles ProfileStore, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		provider:  provider,
		profiles:  profiles,
		logger:    logger,
		now:       time.Now,
		loading:   true,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Init subscribes to the provider. The returned func stops the
// subscription; it is safe to call more than once.
func (s *State) Init() (unsubscribe func()) {
	return s.provider.OnAuthStateChanged(func(u *User) {
		s.update(func() {
			s.user = u
			s.loading = false
		})
	})
}

// SetUser replaces the user without touching loading.
func (s *State) SetUser(u *User) {
	s.update(func() { s.user = u })
}

// SignOut signs out at the provider and clears the user. On failure the
// user is kept and the error is returned.
func (s *State) SignOut(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Error signing out", "error", err)
		return fmt.Errorf("sign out: %w", err)
	}
	s.update(func() { s.user = nil })
	return nil
}

// CreateUserDocument writes the profile document for u unless one exists.
// The name is displayName, else the account's display name, else "User".
func (s *State) CreateUserDocument(ctx context.Context, u *User, displayName string) error {
	if u == nil {
		return nil
	}
	_, err := s.profiles.GetProfile(ctx, u.UID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("get profile %s: %w", u.UID, err)
	}

	name := displayName
	if name == "" {
		name = u.DisplayName
	}
	if name == "" {
		name = "User"
	}
	p := core.Profile{
		Name:      name,
		Email:     u.Email,
		PhotoURL:  u.PhotoURL,
		CreatedAt: s.now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.profiles.CreateProfile(ctx, u.UID, p); err != nil {
		s.logger.ErrorContext(ctx, "Error creating user document", "uid", u.UID, "error", err)
		return fmt.Errorf("create profile %s: %w", u.UID, err)
	}
	s.logger.InfoContext(ctx, "Created user document", "uid", u.UID)
	return nil
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// User returns the signed-in user or nil.
func (s *State) User() *User {
	return s.Snapshot().User
}

// Watch registers fn to run after every state change. fn runs on the
// goroutine that caused the change and must not call back into State.
func (s *State) Watch(fn func(Snapshot)) (stop func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *State) update(mutate func()) {
	s.mu.Lock()
	mutate()
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *State) snapshotLocked() Snapshot {
	var u *User
	if s.user != nil {
		cp := *s.user
		u = &cp
	}
	return Snapshot{User: u, Loading: s.loading}
}
