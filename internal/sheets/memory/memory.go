// Package memory is an in-process TransactionWriter, used when no
// spreadsheet is configured and in tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"myrupee/internal/core"
	"myrupee/internal/sheets"
)

type Writer struct {
	mu   sync.Mutex
	rows [][]any
}

var _ sheets.TransactionWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

// AppendTransaction stores the row and returns a synthetic reference.
func (w *Writer) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if tx.ID == "" {
		return "", errors.New("transaction has no id")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, sheets.Row(tx))
	return fmt.Sprintf("mem:%d", len(w.rows)), nil
}

// Rows returns a copy of every appended row.
func (w *Writer) Rows() [][]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]any, len(w.rows))
	copy(out, w.rows)
	return out
}
