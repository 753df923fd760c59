package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"myrupee/internal/amqp"
	"myrupee/internal/core"
	"myrupee/internal/docstore"
	"myrupee/internal/sheets/memory"
)

type fakeLedger struct {
	mu       sync.Mutex
	mirrored map[string]time.Time
	pending  []core.Transaction
	markErr  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{mirrored: map[string]time.Time{}}
}

func (l *fakeLedger) IsMirrored(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.mirrored[id]
	return ok, nil
}

func (l *fakeLedger) MarkMirrored(_ context.Context, id string, at time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.markErr != nil {
		return false, l.markErr
	}
	if _, ok := l.mirrored[id]; ok {
		return false, nil
	}
	l.mirrored[id] = at
	return true, nil
}

func (l *fakeLedger) PendingMirror(_ context.Context, limit int) ([]core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []core.Transaction
	for _, tx := range l.pending {
		if _, ok := l.mirrored[tx.ID]; ok {
			continue
		}
		out = append(out, tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type failingWriter struct{}

func (failingWriter) AppendTransaction(context.Context, core.Transaction) (string, error) {
	return "", errors.New("quota exceeded")
}

func message(id string) *amqp.TransactionChangedMessage {
	return amqp.NewTransactionChangedMessage(docstore.Change{
		UserID: "u1",
		Transaction: core.Transaction{
			ID: id, Name: "Coffee", Amount: 4, Date: "2024-01-02", Type: core.Expense, Tag: "food",
		},
	})
}

func TestHandleTransactionChangedMirrorsOnce(t *testing.T) {
	ledger := newFakeLedger()
	sheet := memory.New()
	w := NewMirrorWorker(ledger, sheet, 10)

	for i := 0; i < 3; i++ {
		if err := w.HandleTransactionChanged(context.Background(), message("t1")); err != nil {
			t.Fatalf("HandleTransactionChanged: %v", err)
		}
	}
	rows := sheet.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(rows))
	}
	if rows[0][5] != "u1" {
		t.Fatalf("user id not filled from message: %v", rows[0])
	}
}

func TestHandleTransactionChangedSheetError(t *testing.T) {
	ledger := newFakeLedger()
	w := NewMirrorWorker(ledger, failingWriter{}, 10)

	if err := w.HandleTransactionChanged(context.Background(), message("t1")); err == nil {
		t.Fatal("expected error")
	}
	if ok, _ := ledger.IsMirrored(context.Background(), "t1"); ok {
		t.Fatal("failed append must not be marked")
	}
}

func TestHandleTransactionChangedIgnoresOtherEvents(t *testing.T) {
	sheet := memory.New()
	w := NewMirrorWorker(newFakeLedger(), sheet, 10)

	msg := message("t1")
	msg.Event = "transaction.deleted"
	if err := w.HandleTransactionChanged(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if len(sheet.Rows()) != 0 {
		t.Fatal("unexpected row")
	}
}

func TestHandleTransactionChangedRejectsMissingID(t *testing.T) {
	w := NewMirrorWorker(newFakeLedger(), memory.New(), 10)
	if err := w.HandleTransactionChanged(context.Background(), message("")); err == nil {
		t.Fatal("expected error")
	}
}

func TestProcessPending(t *testing.T) {
	ledger := newFakeLedger()
	for _, id := range []string{"a", "b", "c"} {
		ledger.pending = append(ledger.pending, core.Transaction{ID: id, UserID: "u1"})
	}
	ledger.mirrored["b"] = time.Now()

	sheet := memory.New()
	w := NewMirrorWorker(ledger, sheet, 1)

	for i := 0; i < 3; i++ {
		if err := w.ProcessPending(context.Background()); err != nil {
			t.Fatalf("ProcessPending: %v", err)
		}
	}
	rows := sheet.Rows()
	if len(rows) != 2 || rows[0][6] != "a" || rows[1][6] != "c" {
		t.Fatalf("unexpected rows %v", rows)
	}
}
