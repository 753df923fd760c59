package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"myrupee/internal/auth"
	"myrupee/internal/cache"
	"myrupee/internal/docstore"
)

// Entry is one live signed-in session.
type Entry struct {
	Session   *auth.Session
	Dashboard *Dashboard
}

// Registry keeps a dashboard per session token. Idle sessions expire and
// the least recently used are dropped beyond the size limit; either way
// their subscriptions are closed.
type Registry struct {
	ctx      context.Context
	svc      *auth.Service
	coll     docstore.Collection
	profiles auth.ProfileStore
	logger   *slog.Logger
	sessions *cache.LRUCache[*Entry]
	group    singleflight.Group
}

// NewRegistry creates a registry whose dashboards live no longer than ctx.
func NewRegistry(ctx context.Context, svc *auth.Service, coll docstore.Collection, profiles auth.ProfileStore, maxSessions int, idleTTL time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		ctx:      ctx,
		svc:      svc,
		coll:     coll,
		profiles: profiles,
		logger:   logger,
	}
	r.sessions = cache.NewLRUCache[*Entry](maxSessions, idleTTL, func(jti string, e *Entry) {
		e.Dashboard.Close()
		r.logger.Debug("Session closed", "session", jti)
	})
	return r
}

// Open returns the live session for token, creating it on first use.
func (r *Registry) Open(ctx context.Context, token string) (*Entry, error) {
	user, jti, err := r.svc.Verify(token)
	if err != nil {
		return nil, err
	}
	if e, ok := r.sessions.Get(jti); ok {
		return e, nil
	}

	v, err, _ := r.group.Do(jti, func() (interface{}, error) {
		if e, ok := r.sessions.Get(jti); ok {
			return e, nil
		}
		sess := r.svc.NewSession(token, user)
		state := auth.NewState(sess, r.profiles, r.logger)
		if err := state.CreateUserDocument(ctx, user, ""); err != nil {
			r.logger.WarnContext(ctx, "Could not create user document", "uid", user.UID, "error", err)
		}

		d := New(state, r.coll, r.logger)
		d.Start(r.ctx)

		e := &Entry{Session: sess, Dashboard: d}
		r.sessions.Set(jti, e)
		r.logger.InfoContext(ctx, "Session opened", "uid", user.UID)
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return v.(*Entry), nil
}

// SignOut signs the token's session out and forgets it.
func (r *Registry) SignOut(ctx context.Context, token string) error {
	_, jti, err := r.svc.Verify(token)
	if err != nil {
		return err
	}
	if e, ok := r.sessions.Get(jti); ok {
		if err := e.Dashboard.SignOut(ctx); err != nil {
			return err
		}
	} else {
		r.svc.Revoke(token)
	}
	r.sessions.Delete(jti)
	return nil
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Size()
}

// Cleaner exposes the session cache to a cache.Manager.
func (r *Registry) Cleaner() cache.Cleaner {
	return r.sessions
}

// Close ends every session.
func (r *Registry) Close() {
	if n := r.sessions.Purge(); n > 0 {
		r.logger.Info("Closed sessions", "count", n)
	}
}
