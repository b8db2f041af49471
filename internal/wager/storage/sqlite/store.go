// Package sqlite provides a SQLite-backed wagering session store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/frontline-gg/wagervault/internal/platform/storage/sqlitemigrate"
	"github.com/frontline-gg/wagervault/internal/wager/domain"
	"github.com/frontline-gg/wagervault/internal/wager/storage"
	"github.com/frontline-gg/wagervault/internal/wager/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists wagering sessions in SQLite. Session rows carry a version
// counter; UpdateSession commits through a compare-and-swap on it so
// concurrent mutations of the same session cannot silently overwrite each
// other.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite session store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
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

// InsertSession creates a new session at version 1.
func (s *Store) InsertSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(session.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO wager_sessions
		   (session_id, authority, bet_amount, mode, status, created_at, expires_at, spawns_per_purchase, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		session.SessionID,
		session.Authority,
		int64(session.BetAmount),
		string(session.Mode),
		string(session.Status),
		toMillis(session.CreatedAt),
		toMillis(session.ExpiresAt),
		int64(session.SpawnsPerPurchase),
	)
	if err != nil {
		if isSessionUniqueViolation(err) {
			return storage.ErrSessionExists
		}
		return wrapBusy(fmt.Errorf("insert session: %w", err))
	}
	if err := insertPlayers(ctx, tx, session); err != nil {
		return wrapBusy(err)
	}
	if err := tx.Commit(); err != nil {
		return wrapBusy(fmt.Errorf("commit insert: %w", err))
	}
	return nil
}

// GetSession returns the stored session, including its version.
func (s *Store) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Session{}, fmt.Errorf("session id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT session_id, authority, bet_amount, mode, status, created_at, expires_at, spawns_per_purchase, version
		 FROM wager_sessions
		 WHERE session_id = ?`,
		sessionID,
	)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, storage.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	if err := s.loadPlayers(ctx, &session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// UpdateSession replaces the stored session if its version still matches
// expectedVersion, bumping the version on success.
func (s *Store) UpdateSession(ctx context.Context, session domain.Session, expectedVersion uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(session.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`UPDATE wager_sessions
		 SET authority = ?, bet_amount = ?, mode = ?, status = ?,
		     created_at = ?, expires_at = ?, spawns_per_purchase = ?,
		     version = ?
		 WHERE session_id = ? AND version = ?`,
		session.Authority,
		int64(session.BetAmount),
		string(session.Mode),
		string(session.Status),
		toMillis(session.CreatedAt),
		toMillis(session.ExpiresAt),
		int64(session.SpawnsPerPurchase),
		int64(expectedVersion+1),
		session.SessionID,
		int64(expectedVersion),
	)
	if err != nil {
		return wrapBusy(fmt.Errorf("update session: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected == 0 {
		var exists int
		err := tx.QueryRowContext(
			ctx,
			`SELECT 1 FROM wager_sessions WHERE session_id = ?`,
			session.SessionID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		return storage.ErrVersionConflict
	}

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM wager_players WHERE session_id = ?`,
		session.SessionID,
	); err != nil {
		return wrapBusy(fmt.Errorf("clear players: %w", err))
	}
	if err := insertPlayers(ctx, tx, session); err != nil {
		return wrapBusy(err)
	}
	if err := tx.Commit(); err != nil {
		return wrapBusy(fmt.Errorf("commit update: %w", err))
	}
	return nil
}

// ListSessionsByStatus returns up to limit sessions in the given status,
// oldest first.
func (s *Store) ListSessionsByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT session_id, authority, bet_amount, mode, status, created_at, expires_at, spawns_per_purchase, version
		 FROM wager_sessions
		 WHERE status = ?
		 ORDER BY created_at ASC
		 LIMIT ?`,
		string(status),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	for i := range sessions {
		if err := s.loadPlayers(ctx, &sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.Session, error) {
	var (
		session           domain.Session
		mode              string
		status            string
		betAmount         int64
		createdAt         int64
		expiresAt         int64
		spawnsPerPurchase int64
		version           int64
	)
	if err := row.Scan(
		&session.SessionID,
		&session.Authority,
		&betAmount,
		&mode,
		&status,
		&createdAt,
		&expiresAt,
		&spawnsPerPurchase,
		&version,
	); err != nil {
		return domain.Session{}, err
	}

	parsedMode, err := domain.ParseMode(mode)
	if err != nil {
		return domain.Session{}, fmt.Errorf("stored mode %q is not valid", mode)
	}
	parsedStatus, ok := domain.ParseStatus(status)
	if !ok {
		return domain.Session{}, fmt.Errorf("stored status %q is not valid", status)
	}

	session.BetAmount = uint64(betAmount)
	session.Mode = parsedMode
	session.Status = parsedStatus
	session.CreatedAt = fromMillis(createdAt)
	session.ExpiresAt = fromMillis(expiresAt)
	session.SpawnsPerPurchase = uint16(spawnsPerPurchase)
	session.Version = uint64(version)

	size := parsedMode.PlayersPerTeam()
	session.TeamA = domain.NewTeam(size)
	session.TeamB = domain.NewTeam(size)
	return session, nil
}

func (s *Store) loadPlayers(ctx context.Context, session *domain.Session) error {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT team, slot, player, kills, spawns
		 FROM wager_players
		 WHERE session_id = ?
		 ORDER BY team ASC, slot ASC`,
		session.SessionID,
	)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			teamIndex int
			slot      int
			player    string
			kills     int64
			spawns    int64
		)
		if err := rows.Scan(&teamIndex, &slot, &player, &kills, &spawns); err != nil {
			return fmt.Errorf("load players: %w", err)
		}
		team, err := session.Team(teamIndex)
		if err != nil {
			return fmt.Errorf("load players: %w", err)
		}
		if slot < 0 || slot >= len(team.Players) {
			return fmt.Errorf("load players: slot %d out of range for %s", slot, session.SessionID)
		}
		team.Players[slot] = player
		team.Kills[slot] = uint16(kills)
		team.Spawns[slot] = uint16(spawns)
		team.TotalBet += session.BetAmount
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	return nil
}

func insertPlayers(ctx context.Context, tx *sql.Tx, session domain.Session) error {
	teams := []struct {
		index int
		team  domain.Team
	}{
		{0, session.TeamA},
		{1, session.TeamB},
	}
	for _, entry := range teams {
		for slot, player := range entry.team.Players {
			if player == "" {
				continue
			}
			_, err := tx.ExecContext(
				ctx,
				`INSERT INTO wager_players (session_id, team, slot, player, kills, spawns)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				session.SessionID,
				entry.index,
				slot,
				player,
				int64(entry.team.Kills[slot]),
				int64(entry.team.Spawns[slot]),
			)
			if err != nil {
				return fmt.Errorf("insert player %s: %w", player, err)
			}
		}
	}
	return nil
}

// wrapBusy tags lock-contention failures with storage.ErrBusy so callers
// can retry them like version conflicts.
func wrapBusy(err error) error {
	if isBusy(err) {
		return fmt.Errorf("%w: %v", storage.ErrBusy, err)
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

func isSessionUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "wager_sessions.session_id")
}

var _ storage.SessionStore = (*Store)(nil)
