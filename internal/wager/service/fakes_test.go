package service

import (
	"context"
	"sync"

	"github.com/frontline-gg/wagervault/internal/ledger"
	"github.com/frontline-gg/wagervault/internal/wager/domain"
	"github.com/frontline-gg/wagervault/internal/wager/storage"
)

// fakeStore is an in-memory SessionStore with the same version semantics
// as the SQLite store.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session

	// onUpdate runs inside UpdateSession before the version check, letting
	// tests interleave a concurrent writer.
	onUpdate func()

	// updateErr fails UpdateSession for matching writes when set.
	updateErr func(session domain.Session) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]domain.Session)}
}

func (f *fakeStore) InsertSession(_ context.Context, session domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[session.SessionID]; ok {
		return storage.ErrSessionExists
	}
	session.Version = 1
	f.sessions[session.SessionID] = session.Clone()
	return nil
}

func (f *fakeStore) GetSession(_ context.Context, sessionID string) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return domain.Session{}, storage.ErrNotFound
	}
	return session.Clone(), nil
}

func (f *fakeStore) UpdateSession(_ context.Context, session domain.Session, expectedVersion uint64) error {
	if f.onUpdate != nil {
		hook := f.onUpdate
		f.onUpdate = nil
		hook()
	}
	if f.updateErr != nil {
		if err := f.updateErr(session); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sessions[session.SessionID]
	if !ok {
		return storage.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return storage.ErrVersionConflict
	}
	session.Version = expectedVersion + 1
	f.sessions[session.SessionID] = session.Clone()
	return nil
}

func (f *fakeStore) ListSessionsByStatus(_ context.Context, status domain.Status, limit int) ([]domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Session
	for _, session := range f.sessions {
		if session.Status == status && len(out) < limit {
			out = append(out, session.Clone())
		}
	}
	return out, nil
}

var _ storage.SessionStore = (*fakeStore)(nil)

// fakeLedger is an in-memory Ledger with non-negative balances and atomic
// batch transfers.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]uint64

	// transferErr fails every transfer when set.
	transferErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]uint64)}
}

func (f *fakeLedger) BalanceOf(_ context.Context, account string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[account], nil
}

func (f *fakeLedger) Deposit(_ context.Context, account string, amount uint64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[account] += amount
	return nil
}

func (f *fakeLedger) Transfer(ctx context.Context, from, to string, amount uint64, memo string) error {
	return f.TransferBatch(ctx, from, []ledger.Credit{{Account: to, Amount: amount}}, memo)
}

func (f *fakeLedger) TransferBatch(_ context.Context, from string, credits []ledger.Credit, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transferErr != nil {
		return f.transferErr
	}
	var total uint64
	for _, c := range credits {
		total += c.Amount
	}
	if f.balances[from] < total {
		return ledger.ErrInsufficientFunds
	}
	f.balances[from] -= total
	for _, c := range credits {
		f.balances[c.Account] += c.Amount
	}
	return nil
}

var _ ledger.Ledger = (*fakeLedger)(nil)
