// Package ledger defines the escrow accounting contract the wagering
// service settles against. Accounts hold non-negative token balances;
// every movement is recorded as a double-entry row.
package ledger

import (
	"context"
	"errors"
)

// ErrInsufficientFunds indicates a debit would push an account below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrBusy indicates the ledger could not take the write lock in time. The
// movement did not happen and may be retried.
var ErrBusy = errors.New("ledger busy")

// Credit is one planned credit inside a batch transfer.
type Credit struct {
	Account string
	Amount  uint64
}

// Entry is one recorded balance movement.
type Entry struct {
	ID     string
	From   string
	To     string
	Amount uint64
	Memo   string
}

// Ledger moves tokens between accounts. TransferBatch commits all of its
// credits or none of them.
type Ledger interface {
	BalanceOf(ctx context.Context, account string) (uint64, error)
	Deposit(ctx context.Context, account string, amount uint64, memo string) error
	Transfer(ctx context.Context, from, to string, amount uint64, memo string) error
	TransferBatch(ctx context.Context, from string, credits []Credit, memo string) error
}
