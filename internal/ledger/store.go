// Package ledger owns a user's in-memory transaction list and the totals
// derived from it.
package ledger

import (
	"context"
	"log/slog"
	"sync"

	"myrupee/internal/core"
)

// Totals are the derived aggregates shown on the balance cards.
type Totals struct {
	TotalIncome    float64 `json:"totalIncome"`
	TotalExpenses  float64 `json:"totalExpenses"`
	CurrentBalance float64 `json:"currentBalance"`
}

// Store holds the transaction list and its totals. Totals are recomputed
// over the whole list on every mutation and never patched incrementally.
type Store struct {
	mu           sync.RWMutex
	transactions []core.Transaction
	totals       Totals
	logger       *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// ReplaceAll swaps in a fresh snapshot and recomputes the totals.
func (s *Store) ReplaceAll(list []core.Transaction) {
	cp := append([]core.Transaction(nil), list...)
	totals := Recompute(cp)

	s.mu.Lock()
	s.transactions = cp
	s.totals = totals
	s.mu.Unlock()
}

// Append adds one transaction to the end of the list and recomputes.
// There is no id deduplication: a later snapshot containing the same
// document replaces the list wholesale.
func (s *Store) Append(tx core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]core.Transaction, len(s.transactions), len(s.transactions)+1)
	copy(next, s.transactions)
	next = append(next, tx)
	s.transactions = next
	s.totals = Recompute(next)
}

// Reset is the "reset balance" action. It only logs: clearing the balance
// would mean deleting the user's documents, which the store does not do.
func (s *Store) Reset(ctx context.Context) {
	s.mu.RLock()
	n := len(s.transactions)
	s.mu.RUnlock()
	s.logger.InfoContext(ctx, "Resetting balance", "transactions", n, "effect", "none")
}

// Snapshot returns a copy of the current list. Callers may keep it for the
// duration of a render; later mutations do not affect it.
func (s *Store) Snapshot() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.transactions...)
}

func (s *Store) Totals() Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}

// Recompute folds list into its totals in one pass. Anything that is not
// income counts as an expense.
func Recompute(list []core.Transaction) Totals {
	var income, expenses float64
	for _, tx := range list {
		if tx.Type == core.Income {
			income += tx.Amount
		} else {
			expenses += tx.Amount
		}
	}
	return Totals{
		TotalIncome:    income,
		TotalExpenses:  expenses,
		CurrentBalance: income - expenses,
	}
}
