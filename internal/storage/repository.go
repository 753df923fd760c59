package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"myrupee/internal/core"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(db, slog.Default()); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// InsertTransaction implements docstore.Repository
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, name, amount, date, type, tag, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Name, tx.Amount, tx.Date, string(tx.Type), tx.Tag, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", tx.ID, mapErr(err))
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type,
		"amount", tx.Amount)
	return nil
}

// ListTransactions implements docstore.Repository. Rows come back in
// insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, amount, date, type, tag, created_at
		 FROM transactions WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// PendingMirror returns up to limit transactions, oldest first, that have
// no sheet_mirror row yet.
func (r *SQLiteRepository) PendingMirror(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.name, t.amount, t.date, t.type, t.tag, t.created_at
		 FROM transactions t
		 LEFT JOIN sheet_mirror m ON m.transaction_id = t.id
		 WHERE m.transaction_id IS NULL
		 ORDER BY t.seq LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending mirror: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var (
			tx  core.Transaction
			typ string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Name, &tx.Amount, &tx.Date, &typ, &tx.Tag, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.TxType(typ)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// GetProfile implements docstore.Repository
func (r *SQLiteRepository) GetProfile(ctx context.Context, uid string) (core.Profile, error) {
	var p core.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT name, email, photo_url, created_at FROM profiles WHERE uid = ?`, uid).
		Scan(&p.Name, &p.Email, &p.PhotoURL, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, core.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile %s: %w", uid, err)
	}
	return p, nil
}

// CreateProfile implements docstore.Repository
func (r *SQLiteRepository) CreateProfile(ctx context.Context, uid string, p core.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (uid, name, email, photo_url, created_at) VALUES (?, ?, ?, ?, ?)`,
		uid, p.Name, p.Email, p.PhotoURL, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create profile %s: %w", uid, mapErr(err))
	}
	return nil
}

// InsertAccount implements auth.AccountStore
func (r *SQLiteRepository) InsertAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, display_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.DisplayName, a.PasswordHash, a.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert account: %w", mapErr(err))
	}
	return nil
}

// AccountByEmail implements auth.AccountStore
func (r *SQLiteRepository) AccountByEmail(ctx context.Context, email string) (core.Account, error) {
	var (
		a       core.Account
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at FROM accounts WHERE email = ?`, email).
		Scan(&a.ID, &a.Email, &a.DisplayName, &a.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		a.CreatedAt = t
	}
	return a, nil
}

// MarkMirrored records that a transaction has been copied to the
// spreadsheet. It reports false when it was already recorded.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, transactionID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sheet_mirror (transaction_id, mirrored_at) VALUES (?, ?)`,
		transactionID, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("mark mirrored %s: %w", transactionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark mirrored %s: %w", transactionID, err)
	}
	return n == 1, nil
}

// IsMirrored reports whether MarkMirrored has run for transactionID.
func (r *SQLiteRepository) IsMirrored(ctx context.Context, transactionID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sheet_mirror WHERE transaction_id = ?`, transactionID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check mirrored %s: %w", transactionID, err)
	}
	return n > 0, nil
}

// mapErr turns unique violations into core.ErrConflict.
func mapErr(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", core.ErrConflict, err)
		}
	}
	return err
}
