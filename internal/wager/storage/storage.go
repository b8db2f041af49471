// Package storage defines persistence contracts for wagering session state.
package storage

import (
	"context"
	"errors"

	"github.com/frontline-gg/wagervault/internal/wager/domain"
)

// ErrNotFound indicates a requested session record is missing.
var ErrNotFound = errors.New("session not found")

// ErrSessionExists indicates an insert collided with an existing session id.
var ErrSessionExists = errors.New("session already exists")

// ErrVersionConflict indicates the stored session changed since it was read.
var ErrVersionConflict = errors.New("session version conflict")

// ErrBusy indicates the store could not take the write lock in time. The
// write may be retried.
var ErrBusy = errors.New("session store busy")

// SessionStore persists wagering sessions with optimistic concurrency.
// UpdateSession commits only when the stored version still matches
// expectedVersion, and bumps the version on success.
type SessionStore interface {
	InsertSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	UpdateSession(ctx context.Context, session domain.Session, expectedVersion uint64) error
	ListSessionsByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Session, error)
}
