// Package docstore is the user-scoped transaction collection with realtime
// snapshots. Subscribers receive the full set of a user's transactions
// when they subscribe and again after every change for that user.
package docstore

import (
	"context"
	"time"

	"myrupee/internal/core"
)

// ErrNotFound is returned for missing documents.
var ErrNotFound = core.ErrNotFound

// Subscription is a live query. Close stops further deliveries; it is
// safe to call more than once.
type Subscription interface {
	Close()
}

// Collection is the transactions collection filtered by user.
type Collection interface {
	Subscribe(ctx context.Context, userID string, onSnapshot func([]core.Transaction), onError func(error)) (Subscription, error)
	Add(ctx context.Context, userID string, n core.NewTransaction) (string, error)
}

// Profiles is the users collection.
type Profiles interface {
	GetProfile(ctx context.Context, uid string) (core.Profile, error)
	CreateProfile(ctx context.Context, uid string, p core.Profile) error
}

// Change announces a write to a user's transactions.
type Change struct {
	UserID      string           `json:"userId"`
	Transaction core.Transaction `json:"transaction"`
	Timestamp   time.Time        `json:"timestamp"`
}

// Notifier carries changes between writers and subscribers, possibly
// across processes. Listen blocks until ctx is done.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
	Listen(ctx context.Context, fn func(Change)) error
}
