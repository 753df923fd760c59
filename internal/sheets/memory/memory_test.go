package memory

import (
	"context"
	"testing"

	"myrupee/internal/core"
)

func TestWriterAppend(t *testing.T) {
	w := New()
	ref, err := w.AppendTransaction(context.Background(), core.Transaction{
		ID: "t1", Name: "Rent", Amount: 900, Date: "2024-01-01", Type: core.Expense, Tag: "office", UserID: "u1",
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	ref, _ = w.AppendTransaction(context.Background(), core.Transaction{ID: "t2"})
	if ref != "mem:2" {
		t.Fatalf("ref = %q", ref)
	}

	rows := w.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "2024-01-01" || rows[0][1] != "Rent" || rows[0][6] != "t1" {
		t.Fatalf("unexpected row %v", rows[0])
	}
}

func TestWriterRejectsMissingID(t *testing.T) {
	if _, err := New().AppendTransaction(context.Background(), core.Transaction{Name: "x"}); err == nil {
		t.Fatal("expected error")
	}
}
