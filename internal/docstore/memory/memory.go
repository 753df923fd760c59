// Package memory is an in-process document store. Changes fan out to
// subscribers synchronously, before Add returns. Each snapshot carries the
// user's write version and a subscription never delivers one older than
// the last it delivered.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"myrupee/internal/core"
	"myrupee/internal/docstore"
)

type Store struct {
	mu           sync.Mutex
	transactions map[string][]core.Transaction
	profiles     map[string]core.Profile
	accounts     map[string]core.Account
	subs         map[string]map[*subscription]struct{}
	versions     map[string]uint64
	now          func() time.Time
}

func New() *Store {
	return &Store{
		transactions: make(map[string][]core.Transaction),
		profiles:     make(map[string]core.Profile),
		accounts:     make(map[string]core.Account),
		subs:         make(map[string]map[*subscription]struct{}),
		versions:     make(map[string]uint64),
		now:          time.Now,
	}
}

// Seed loads existing transactions without notifying anyone.
func (s *Store) Seed(list []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range list {
		s.transactions[tx.UserID] = append(s.transactions[tx.UserID], tx)
	}
}

func (s *Store) Subscribe(ctx context.Context, userID string, onSnapshot func([]core.Transaction), onError func(error)) (docstore.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, fmt.Errorf("subscribe: empty user id")
	}
	sub := &subscription{store: s, userID: userID, onSnapshot: onSnapshot}

	s.mu.Lock()
	set, ok := s.subs[userID]
	if !ok {
		set = make(map[*subscription]struct{})
		s.subs[userID] = set
	}
	set[sub] = struct{}{}
	list := s.listLocked(userID)
	version := s.versions[userID]
	s.mu.Unlock()

	sub.deliver(version, list)
	return sub, nil
}

func (s *Store) Add(ctx context.Context, userID string, n core.NewTransaction) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tx := n.Materialize(uuid.NewString(), userID, s.now())

	s.mu.Lock()
	s.transactions[userID] = append(s.transactions[userID], tx)
	s.versions[userID]++
	version := s.versions[userID]
	list := s.listLocked(userID)
	targets := make([]*subscription, 0, len(s.subs[userID]))
	for sub := range s.subs[userID] {
		targets = append(targets, sub)
	}
	s.mu.Unlock()

	for _, sub := range targets {
		sub.deliver(version, list)
	}
	return tx.ID, nil
}

// Transactions returns a copy of userID's stored transactions.
func (s *Store) Transactions(userID string) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(userID)
}

func (s *Store) GetProfile(ctx context.Context, uid string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[uid]
	if !ok {
		return core.Profile{}, docstore.ErrNotFound
	}
	return p, nil
}

func (s *Store) CreateProfile(ctx context.Context, uid string, p core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[uid] = p
	return nil
}

func (s *Store) InsertAccount(ctx context.Context, a core.Account) error {
	key := strings.ToLower(a.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; ok {
		return core.ErrConflict
	}
	s.accounts[key] = a
	return nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return core.Account{}, core.ErrNotFound
	}
	return a, nil
}

func (s *Store) listLocked(userID string) []core.Transaction {
	return append([]core.Transaction(nil), s.transactions[userID]...)
}

type subscription struct {
	store      *Store
	userID     string
	onSnapshot func([]core.Transaction)

	// delivering serialises callbacks; mu guards the fields below it.
	delivering sync.Mutex
	mu         sync.Mutex
	closed     bool
	seen       bool
	last       uint64
}

// deliver hands list to the subscriber unless the subscription is closed
// or a snapshot at least as new was already delivered.
func (sub *subscription) deliver(version uint64, list []core.Transaction) {
	sub.delivering.Lock()
	defer sub.delivering.Unlock()

	sub.mu.Lock()
	if sub.closed || (sub.seen && version <= sub.last) {
		sub.mu.Unlock()
		return
	}
	sub.seen, sub.last = true, version
	sub.mu.Unlock()

	sub.onSnapshot(list)
}

func (sub *subscription) Close() {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.closed = true
	sub.mu.Unlock()

	s := sub.store
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[sub.userID], sub)
	if len(s.subs[sub.userID]) == 0 {
		delete(s.subs, sub.userID)
	}
}
