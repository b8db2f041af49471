// Package sqlite provides a SQLite-backed ledger implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/frontline-gg/wagervault/internal/id"
	"github.com/frontline-gg/wagervault/internal/ledger"
	"github.com/frontline-gg/wagervault/internal/ledger/sqlite/migrations"
	sqlitemigrate "github.com/frontline-gg/wagervault/internal/platform/storage/sqlitemigrate"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists accounts and entries in SQLite. Batch transfers run in a
// single transaction so a settlement either lands whole or not at all.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite ledger store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// BalanceOf returns the account balance. Unknown accounts report zero.
func (s *Store) BalanceOf(ctx context.Context, account string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("ledger is not configured")
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return 0, fmt.Errorf("account is required")
	}

	var balance int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT balance FROM accounts WHERE account = ?`,
		account,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance of: %w", err)
	}
	return uint64(balance), nil
}

// Deposit credits an account from outside the ledger.
func (s *Store) Deposit(ctx context.Context, account string, amount uint64, memo string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("ledger is not configured")
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return fmt.Errorf("account is required")
	}
	if amount == 0 {
		return fmt.Errorf("amount must be greater than zero")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return wrapBusy(fmt.Errorf("begin deposit: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	now := toMillis(time.Now())
	if err := credit(ctx, tx, account, amount, now); err != nil {
		return wrapBusy(err)
	}
	if err := record(ctx, tx, "", account, amount, memo, now); err != nil {
		return wrapBusy(err)
	}
	if err := tx.Commit(); err != nil {
		return wrapBusy(fmt.Errorf("commit deposit: %w", err))
	}
	return nil
}

// Transfer moves tokens between two accounts.
func (s *Store) Transfer(ctx context.Context, from, to string, amount uint64, memo string) error {
	if from == to {
		return fmt.Errorf("transfer accounts must differ")
	}
	return s.TransferBatch(ctx, from, []ledger.Credit{{Account: to, Amount: amount}}, memo)
}

// TransferBatch debits one account and credits every listed recipient in a
// single transaction. It returns ledger.ErrInsufficientFunds without side
// effects when the source cannot cover the sum of the credits.
func (s *Store) TransferBatch(ctx context.Context, from string, credits []ledger.Credit, memo string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("ledger is not configured")
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return fmt.Errorf("source account is required")
	}
	if len(credits) == 0 {
		return fmt.Errorf("at least one credit is required")
	}
	var total uint64
	for _, c := range credits {
		if strings.TrimSpace(c.Account) == "" {
			return fmt.Errorf("credit account is required")
		}
		if c.Amount == 0 {
			return fmt.Errorf("credit amount must be greater than zero")
		}
		sum := total + c.Amount
		if sum < total {
			return fmt.Errorf("credit total overflows")
		}
		total = sum
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return wrapBusy(fmt.Errorf("begin transfer: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	now := toMillis(time.Now())
	if err := debit(ctx, tx, from, total, now); err != nil {
		return wrapBusy(err)
	}
	for _, c := range credits {
		if err := credit(ctx, tx, c.Account, c.Amount, now); err != nil {
			return wrapBusy(err)
		}
		if err := record(ctx, tx, from, c.Account, c.Amount, memo, now); err != nil {
			return wrapBusy(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapBusy(fmt.Errorf("commit transfer: %w", err))
	}
	return nil
}

func debit(ctx context.Context, tx *sql.Tx, account string, amount uint64, now int64) error {
	res, err := tx.ExecContext(
		ctx,
		`UPDATE accounts
		 SET balance = balance - ?, updated_at = ?
		 WHERE account = ? AND balance >= ?`,
		int64(amount),
		now,
		account,
		int64(amount),
	)
	if err != nil {
		return fmt.Errorf("debit %s: %w", account, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit %s: %w", account, err)
	}
	if affected == 0 {
		return ledger.ErrInsufficientFunds
	}
	return nil
}

func credit(ctx context.Context, tx *sql.Tx, account string, amount uint64, now int64) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO accounts (account, balance, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(account) DO UPDATE SET
		   balance = balance + excluded.balance,
		   updated_at = excluded.updated_at`,
		account,
		int64(amount),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("credit %s: %w", account, err)
	}
	return nil
}

func record(ctx context.Context, tx *sql.Tx, from, to string, amount uint64, memo string, now int64) error {
	entryID, err := id.NewID()
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO entries (id, from_account, to_account, amount, memo, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entryID,
		from,
		to,
		int64(amount),
		memo,
		now,
	)
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	return nil
}

// wrapBusy tags lock-contention failures with ledger.ErrBusy so callers can
// surface them as retryable instead of unknown.
func wrapBusy(err error) error {
	if isBusy(err) {
		return fmt.Errorf("%w: %v", ledger.ErrBusy, err)
	}
	return err
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_BUSY_RECOVERY,
			sqlite3lib.SQLITE_BUSY_SNAPSHOT, sqlite3lib.SQLITE_BUSY_TIMEOUT:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "database is locked")
}

var _ ledger.Ledger = (*Store)(nil)
