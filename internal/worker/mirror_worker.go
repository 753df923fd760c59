package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"myrupee/internal/amqp"
	"myrupee/internal/core"
	"myrupee/internal/sheets"
)

// MirrorLedger records which transactions have reached the spreadsheet.
type MirrorLedger interface {
	IsMirrored(ctx context.Context, transactionID string) (bool, error)
	MarkMirrored(ctx context.Context, transactionID string, at time.Time) (bool, error)
	PendingMirror(ctx context.Context, limit int) ([]core.Transaction, error)
}

// MirrorWorker copies new transactions to a spreadsheet, at most once per
// transaction id.
type MirrorWorker struct {
	ledger    MirrorLedger
	sheets    sheets.TransactionWriter
	batchSize int
	now       func() time.Time
}

func NewMirrorWorker(ledger MirrorLedger, writer sheets.TransactionWriter, batchSize int) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &MirrorWorker{
		ledger:    ledger,
		sheets:    writer,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// HandleTransactionChanged processes one transaction.changed message.
func (w *MirrorWorker) HandleTransactionChanged(ctx context.Context, msg *amqp.TransactionChangedMessage) error {
	if msg.Event != "" && msg.Event != amqp.EventTransactionChanged {
		slog.WarnContext(ctx, "Ignoring unexpected event", "event", msg.Event)
		return nil
	}
	tx := msg.Transaction
	if tx.UserID == "" {
		tx.UserID = msg.UserID
	}

	slog.InfoContext(ctx, "Processing transaction message",
		"transaction_id", tx.ID,
		"user_id", tx.UserID)

	return w.mirror(ctx, tx)
}

// ProcessPending mirrors transactions that never reached the sheet, for
// instance because the worker was down when they were added.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.ledger.PendingMirror(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	if len(pending) == 0 {
		slog.DebugContext(ctx, "No transactions waiting for mirror")
		return nil
	}

	slog.InfoContext(ctx, "Mirroring pending transactions", "count", len(pending))
	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.mirror(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror pending transaction",
				"transaction_id", tx.ID,
				"error", err)
		}
	}
	return nil
}

func (w *MirrorWorker) mirror(ctx context.Context, tx core.Transaction) error {
	if tx.ID == "" {
		return errors.New("transaction without id")
	}

	done, err := w.ledger.IsMirrored(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("check mirrored: %w", err)
	}
	if done {
		slog.DebugContext(ctx, "Transaction already mirrored", "transaction_id", tx.ID)
		return nil
	}

	ref, err := w.sheets.AppendTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	if _, err := w.ledger.MarkMirrored(ctx, tx.ID, w.now()); err != nil {
		// The row is in the sheet; a redelivery will append it again.
		return fmt.Errorf("mark mirrored: %w", err)
	}

	slog.InfoContext(ctx, "Transaction mirrored to sheets",
		"transaction_id", tx.ID,
		"ref", ref)
	return nil
}
