package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"myrupee/internal/core"
)

// Repository is the durable side of Realtime.
type Repository interface {
	InsertTransaction(ctx context.Context, tx core.Transaction) error
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	GetProfile(ctx context.Context, uid string) (core.Profile, error)
	CreateProfile(ctx context.Context, uid string, p core.Profile) error
}

// Realtime turns a Repository into a subscribable Collection. Writes are
// announced through the Notifier, and every change re-reads the affected
// user's transactions for that user's subscribers.
type Realtime struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

func NewRealtime(repo Repository, notifier Notifier, logger *slog.Logger) *Realtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Realtime{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		subs:     make(map[string]map[*subscription]struct{}),
	}
}

// Run feeds notifier changes to subscribers until ctx is done.
func (r *Realtime) Run(ctx context.Context) error {
	return r.notifier.Listen(ctx, r.dispatch)
}

// Subscribe starts a live query for userID. The first snapshot is
// delivered from the subscription goroutine shortly after Subscribe
// returns. The subscription ends on Close or when ctx is done.
func (r *Realtime) Subscribe(ctx context.Context, userID string, onSnapshot func([]core.Transaction), onError func(error)) (Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("subscribe: empty user id")
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &subscription{
		owner:      r,
		userID:     userID,
		onSnapshot: onSnapshot,
		onError:    onError,
		signal:     make(chan struct{}, 1),
		cancel:     cancel,
	}

	r.mu.Lock()
	set, ok := r.subs[userID]
	if !ok {
		set = make(map[*subscription]struct{})
		r.subs[userID] = set
	}
	set[s] = struct{}{}
	r.mu.Unlock()

	s.poke()
	go s.loop(ctx)
	return s, nil
}

// Add writes n for userID and announces the change. A failed
// announcement is logged and delivered locally; the write stands.
func (r *Realtime) Add(ctx context.Context, userID string, n core.NewTransaction) (string, error) {
	tx := n.Materialize(uuid.NewString(), userID, r.now())
	if err := r.repo.InsertTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	c := Change{UserID: userID, Transaction: tx, Timestamp: r.now().UTC()}
	if err := r.notifier.Notify(ctx, c); err != nil {
		r.logger.WarnContext(ctx, "Failed to announce change, delivering locally",
			"user_id", userID, "transaction_id", tx.ID, "error", err)
		r.dispatch(c)
	}
	return tx.ID, nil
}

func (r *Realtime) GetProfile(ctx context.Context, uid string) (core.Profile, error) {
	return r.repo.GetProfile(ctx, uid)
}

func (r *Realtime) CreateProfile(ctx context.Context, uid string, p core.Profile) error {
	return r.repo.CreateProfile(ctx, uid, p)
}

// Subscribers reports the number of live subscriptions for userID.
func (r *Realtime) Subscribers(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[userID])
}

func (r *Realtime) dispatch(c Change) {
	r.mu.Lock()
	targets := make([]*subscription, 0, len(r.subs[c.UserID]))
	for s := range r.subs[c.UserID] {
		targets = append(targets, s)
	}
	r.mu.Unlock()

	for _, s := range targets {
		s.poke()
	}
}

func (r *Realtime) remove(s *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.subs[s.userID]
	delete(set, s)
	if len(set) == 0 {
		delete(r.subs, s.userID)
	}
}

type subscription struct {
	owner      *Realtime
	userID     string
	onSnapshot func([]core.Transaction)
	onError    func(error)

	// signal coalesces bursts of changes into one re-read.
	signal chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func (s *subscription) poke() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscription) loop(ctx context.Context) {
	defer s.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.signal:
		}

		list, err := s.owner.repo.ListTransactions(ctx, s.userID)
		if s.isClosed() || ctx.Err() != nil {
			return
		}
		if err != nil {
			s.owner.logger.ErrorContext(ctx, "Snapshot query failed", "user_id", s.userID, "error", err)
			if s.onError != nil {
				s.onError(err)
			}
			continue
		}
		s.onSnapshot(list)
	}
}

func (s *subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.owner.remove(s)
}
