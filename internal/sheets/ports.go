package sheets

import (
	"context"

	"myrupee/internal/core"
)

// TransactionWriter appends a stored transaction to an external
// spreadsheet and returns a reference to the written row.
type TransactionWriter interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}

// Columns is the row layout written by every TransactionWriter.
var Columns = []string{"date", "name", "type", "tag", "amount", "userId", "id"}

// Row renders tx in Columns order.
func Row(tx core.Transaction) []any {
	return []any{tx.Date, tx.Name, string(tx.Type), tx.Tag, tx.Amount, tx.UserID, tx.ID}
}
