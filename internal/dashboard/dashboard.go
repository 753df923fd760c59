// Package dashboard wires a signed-in session's auth state, its live
// transaction subscription and its ledger together.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"myrupee/internal/auth"
	"myrupee/internal/core"
	"myrupee/internal/docstore"
	"myrupee/internal/filter"
	"myrupee/internal/ledger"
)

var (
	ErrNotSignedIn = errors.New("not signed in")
	// ErrRemote wraps failures of the document store.
	ErrRemote = errors.New("remote store error")
)

const maxNotices = 20

// Notice is a one-shot user-facing message.
type Notice struct {
	Kind    string    `json:"kind"` // "success" or "error"
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Summary is everything the dashboard cards and charts show.
type Summary struct {
	ledger.Totals
	Count           int                   `json:"count"`
	MonthlyBalances []ledger.MonthBalance `json:"monthlyBalances"`
	SpendingByTag   []ledger.TagAmount    `json:"spendingByTag"`
}

// ImportReport describes one CSV import. Rows the store rejected are
// counted in Failed and do not stop the import.
type ImportReport struct {
	Added  int      `json:"added"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

type Dashboard struct {
	auth   *auth.State
	coll   docstore.Collection
	ledger *ledger.Store
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	uid       string
	sub       docstore.Subscription
	gen       uint64
	stopWatch func()
	unsubAuth func()
	notices   []Notice
	subErr    error
}

func New(state *auth.State, coll docstore.Collection, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		auth:   state,
		coll:   coll,
		ledger: ledger.NewStore(logger),
		logger: logger,
		now:    time.Now,
	}
}

// Start begins following the auth state. Whenever the user changes the
// current subscription is closed, the ledger is emptied, and a new
// subscription is opened for the new user. ctx bounds every subscription.
func (d *Dashboard) Start(ctx context.Context) {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.mu.Unlock()

	stop := d.auth.Watch(func(s auth.Snapshot) {
		uid := ""
		if s.User != nil {
			uid = s.User.UID
		}
		d.follow(uid)
	})
	unsub := d.auth.Init()

	d.mu.Lock()
	d.stopWatch, d.unsubAuth = stop, unsub
	d.mu.Unlock()

	// The provider may already have reported before Watch saw anything.
	if u := d.auth.User(); u != nil {
		d.follow(u.UID)
	}
}

// Close releases the subscription and stops following auth changes.
func (d *Dashboard) Close() {
	d.mu.Lock()
	stop, unsub, cancel := d.stopWatch, d.unsubAuth, d.cancel
	sub := d.sub
	d.sub, d.uid = nil, ""
	d.gen++
	d.stopWatch, d.unsubAuth = nil, nil
	d.mu.Unlock()

	if stop != nil {
		stop()
	}
	if unsub != nil {
		unsub()
	}
	if sub != nil {
		sub.Close()
	}
	if cancel != nil {
		cancel()
	}
}

func (d *Dashboard) follow(uid string) {
	d.mu.Lock()
	if uid == d.uid || d.ctx == nil {
		d.mu.Unlock()
		return
	}
	old := d.sub
	d.sub = nil
	d.uid = uid
	d.gen++
	gen := d.gen
	ctx := d.ctx
	d.subErr = nil
	d.ledger.ReplaceAll(nil)
	d.mu.Unlock()

	if old != nil {
		old.Close()
	}
	if uid == "" {
		return
	}

	sub, err := d.coll.Subscribe(ctx, uid,
		func(list []core.Transaction) { d.onSnapshot(gen, list) },
		func(err error) { d.onSubscriptionError(gen, err) },
	)
	if err != nil {
		d.logger.Error("Failed to subscribe to transactions", "user_id", uid, "error", err)
		d.mu.Lock()
		if d.gen == gen {
			d.subErr = err
		}
		d.mu.Unlock()
		return
	}

	d.mu.Lock()
	if d.gen != gen {
		d.mu.Unlock()
		sub.Close()
		return
	}
	d.sub = sub
	d.mu.Unlock()
}

// onSnapshot applies list if it belongs to the current subscription. The
// check and the swap happen under d.mu so a user change cannot slip in
// between them.
func (d *Dashboard) onSnapshot(gen uint64, list []core.Transaction) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen != gen {
		return
	}
	d.subErr = nil
	d.ledger.ReplaceAll(list)
}

func (d *Dashboard) onSubscriptionError(gen uint64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen == gen {
		d.subErr = err
	}
}

// AddTransaction writes n to the store and, once the store has assigned
// an id, appends it to the ledger. A failed write leaves the ledger as it
// was.
func (d *Dashboard) AddTransaction(ctx context.Context, n core.NewTransaction) (core.Transaction, error) {
	if err := n.Validate(); err != nil {
		return core.Transaction{}, err
	}
	d.mu.Lock()
	uid := d.uid
	d.mu.Unlock()
	if uid == "" {
		return core.Transaction{}, ErrNotSignedIn
	}

	id, err := d.coll.Add(ctx, uid, n)
	if err != nil {
		d.logger.ErrorContext(ctx, "Error adding transaction", "user_id", uid, "error", err)
		d.notify("error", "Failed to add transaction")
		return core.Transaction{}, fmt.Errorf("%w: %v", ErrRemote, err)
	}

	tx := n.Materialize(id, uid, d.now())
	d.ledger.Append(tx)
	d.notify("success", n.Type.Label()+" added successfully!")
	return tx, nil
}

// Import reads a CSV file and adds each complete row. A malformed file is
// an error; rows the store rejects are reported and skipped.
func (d *Dashboard) Import(ctx context.Context, r io.Reader) (ImportReport, error) {
	var rep ImportReport
	_, err := filter.ImportCSV(ctx, r, func(ctx context.Context, n core.NewTransaction) error {
		if _, err := d.AddTransaction(ctx, n); err != nil {
			if errors.Is(err, ErrNotSignedIn) {
				return err
			}
			rep.Failed++
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", n.Name, err))
			return nil
		}
		rep.Added++
		return nil
	})
	if err != nil {
		return rep, err
	}
	d.logger.InfoContext(ctx, "Imported transactions", "added", rep.Added, "failed", rep.Failed)
	return rep, nil
}

// View returns the filtered and sorted transaction list.
func (d *Dashboard) View(search, typeFilter, sortKey string) []core.Transaction {
	return filter.FilterAndSort(d.ledger.Snapshot(), search, typeFilter, sortKey)
}

// Transactions returns the full unfiltered list.
func (d *Dashboard) Transactions() []core.Transaction {
	return d.ledger.Snapshot()
}

func (d *Dashboard) Summary() Summary {
	list := d.ledger.Snapshot()
	return Summary{
		Totals:          ledger.Recompute(list),
		Count:           len(list),
		MonthlyBalances: ledger.MonthlyBalances(list),
		SpendingByTag:   ledger.SpendingByTag(list),
	}
}

// Reset is the reset-balance action. It changes nothing.
func (d *Dashboard) Reset(ctx context.Context) {
	d.ledger.Reset(ctx)
}

// SignOut signs the session's user out; the auth watcher then drops the
// subscription and empties the ledger.
func (d *Dashboard) SignOut(ctx context.Context) error {
	return d.auth.SignOut(ctx)
}

// Auth returns the observable auth state.
func (d *Dashboard) Auth() auth.Snapshot {
	return d.auth.Snapshot()
}

// Err returns the last subscription error, cleared by the next snapshot.
func (d *Dashboard) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.subErr
}

// Notices returns and clears pending notices.
func (d *Dashboard) Notices() []Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.notices
	d.notices = nil
	return out
}

func (d *Dashboard) notify(kind, msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notices = append(d.notices, Notice{Kind: kind, Message: msg, At: d.now()})
	if len(d.notices) > maxNotices {
		d.notices = d.notices[len(d.notices)-maxNotices:]
	}
}
