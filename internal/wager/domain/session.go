// Package domain holds the wagering session state machine: slot allocation,
// kill and spawn bookkeeping, and the pure settlement planning that the
// service layer commits through storage and the ledger adapter.
package domain

import (
	"math"
	"strconv"
	"time"

	apperrors "github.com/frontline-gg/wagervault/internal/errors"
)

// Session id length bounds, enforced on creation.
const (
	MinSessionIDLength = 3
	MaxSessionIDLength = 32
)

// TeamA and TeamB are the only valid team indexes.
const (
	TeamA = 0
	TeamB = 1
)

// Config carries the tunable parameters a session is created with.
type Config struct {
	MinBet            uint64
	MaxBet            uint64
	TTL               time.Duration
	SpawnsPerPurchase uint16
	MaxSpawns         uint16
}

// Session is the root entity of one wagering match. The Version field is
// storage bookkeeping for optimistic concurrency and is never interpreted
// by domain rules.
type Session struct {
	SessionID         string
	Authority         string
	BetAmount         uint64
	Mode              Mode
	TeamA             Team
	TeamB             Team
	Status            Status
	CreatedAt         time.Time
	ExpiresAt         time.Time
	SpawnsPerPurchase uint16
	Version           uint64
}

// NewSessionInput describes the caller-supplied session parameters.
type NewSessionInput struct {
	SessionID string
	Authority string
	BetAmount uint64
	Mode      Mode
}

// NewSession validates input and creates a session waiting for players.
func NewSession(input NewSessionInput, cfg Config, now func() time.Time) (Session, error) {
	if now == nil {
		now = time.Now
	}

	if len(input.SessionID) < MinSessionIDLength {
		return Session{}, apperrors.WithMetadata(apperrors.CodeSessionIDTooShort,
			"session id shorter than minimum",
			map[string]string{"Min": strconv.Itoa(MinSessionIDLength)})
	}
	if len(input.SessionID) > MaxSessionIDLength {
		return Session{}, apperrors.WithMetadata(apperrors.CodeSessionIDTooLong,
			"session id longer than maximum",
			map[string]string{"Max": strconv.Itoa(MaxSessionIDLength)})
	}
	if input.BetAmount == 0 {
		return Session{}, apperrors.New(apperrors.CodeInvalidBetAmount, "bet amount must be greater than zero")
	}
	if input.BetAmount < cfg.MinBet {
		return Session{}, apperrors.WithMetadata(apperrors.CodeBetAmountTooLow,
			"bet amount below configured minimum",
			map[string]string{"Min": strconv.FormatUint(cfg.MinBet, 10)})
	}
	if cfg.MaxBet > 0 && input.BetAmount > cfg.MaxBet {
		return Session{}, apperrors.WithMetadata(apperrors.CodeBetAmountTooHigh,
			"bet amount above configured maximum",
			map[string]string{"Max": strconv.FormatUint(cfg.MaxBet, 10)})
	}
	if !input.Mode.Valid() {
		return Session{}, apperrors.New(apperrors.CodeInvalidGameMode, "unknown game mode")
	}

	size := input.Mode.PlayersPerTeam()
	createdAt := now().UTC()
	return Session{
		SessionID:         input.SessionID,
		Authority:         input.Authority,
		BetAmount:         input.BetAmount,
		Mode:              input.Mode,
		TeamA:             NewTeam(size),
		TeamB:             NewTeam(size),
		Status:            StatusWaitingForPlayers,
		CreatedAt:         createdAt,
		ExpiresAt:         createdAt.Add(cfg.TTL),
		SpawnsPerPurchase: cfg.SpawnsPerPurchase,
	}, nil
}

// Clone returns a deep copy safe for read-modify-write cycles.
func (s Session) Clone() Session {
	cloned := s
	cloned.TeamA = s.TeamA.Clone()
	cloned.TeamB = s.TeamB.Clone()
	return cloned
}

// IsExpired reports whether the session passed its expiry time.
func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Team returns the team for index 0 or 1.
func (s *Session) Team(index int) (*Team, error) {
	switch index {
	case TeamA:
		return &s.TeamA, nil
	case TeamB:
		return &s.TeamB, nil
	default:
		return nil, apperrors.New(apperrors.CodeInvalidTeamSelection, "team index must be 0 or 1")
	}
}

// ContainsPlayer reports whether the player holds a slot in either team.
func (s Session) ContainsPlayer(player string) bool {
	return s.TeamA.ContainsPlayer(player) || s.TeamB.ContainsPlayer(player)
}

// PlayerTeamAndIndex locates a player across both teams.
func (s Session) PlayerTeamAndIndex(player string) (team int, index int, err error) {
	if i, ok := s.TeamA.PlayerIndex(player); ok {
		return TeamA, i, nil
	}
	if i, ok := s.TeamB.PlayerIndex(player); ok {
		return TeamB, i, nil
	}
	return 0, 0, apperrors.New(apperrors.CodePlayerNotFound, "player not found in session")
}

// AllFilled reports whether both teams are at capacity.
func (s Session) AllFilled() bool {
	return s.TeamA.IsFull() && s.TeamB.IsFull()
}

// Join claims the first empty slot of the named team for the player and
// flips the session to in-progress when it fills the last slot. The
// duplicate check runs across both teams so a player can never hold two
// slots in one session. Join mutates the receiver; callers work on a Clone
// and commit through a versioned store write.
func (s *Session) Join(player string, teamIndex int, now time.Time) (slot int, err error) {
	team, err := s.Team(teamIndex)
	if err != nil {
		return 0, err
	}
	if s.Status != StatusWaitingForPlayers {
		// A join that lost the race for the last slot re-reads the
		// session after the winning commit started the match; it must
		// still see the full team.
		if s.Status == StatusInProgress && team.IsFull() {
			return 0, apperrors.New(apperrors.CodeTeamIsFull, "no empty slot in team")
		}
		return 0, apperrors.New(apperrors.CodeInvalidGameState, "session is not waiting for players")
	}
	if s.IsExpired(now) {
		return 0, apperrors.New(apperrors.CodeGameNotJoinable, "session has expired")
	}
	if s.ContainsPlayer(player) {
		return 0, apperrors.New(apperrors.CodePlayerAlreadyJoined, "player already holds a slot")
	}
	slot, ok := team.EmptySlot()
	if !ok {
		return 0, apperrors.New(apperrors.CodeTeamIsFull, "no empty slot in team")
	}

	newTotal, err := checkedAddU64(team.TotalBet, s.BetAmount)
	if err != nil {
		return 0, err
	}

	team.Players[slot] = player
	team.Kills[slot] = 0
	team.Spawns[slot] = s.Mode.StartingSpawns()
	team.TotalBet = newTotal

	if s.AllFilled() {
		s.Status = StatusInProgress
	}
	return slot, nil
}

// Leave releases the player's slot before the match starts. The refund of
// the staked bet is the caller's responsibility.
func (s *Session) Leave(player string, teamIndex int, now time.Time) error {
	if s.Status != StatusWaitingForPlayers {
		return apperrors.New(apperrors.CodeInvalidGameState, "session already started")
	}
	if s.IsExpired(now) {
		return apperrors.New(apperrors.CodeGameNotJoinable, "session has expired")
	}
	team, err := s.Team(teamIndex)
	if err != nil {
		return err
	}
	slot, ok := team.PlayerIndex(player)
	if !ok {
		return apperrors.New(apperrors.CodePlayerNotFound, "player not found in team")
	}

	team.Players[slot] = ""
	team.Kills[slot] = 0
	team.Spawns[slot] = 0
	if team.TotalBet >= s.BetAmount {
		team.TotalBet -= s.BetAmount
	} else {
		team.TotalBet = 0
	}
	return nil
}

// RecordKill increments the killer's kill counter and consumes one of the
// victim's spawns. A victim with zero spawns rejects the kill; the counter
// never wraps below zero and the kill counter never wraps past its maximum.
func (s *Session) RecordKill(killerTeam int, killer string, victimTeam int, victim string) error {
	if s.Status != StatusInProgress {
		return apperrors.New(apperrors.CodeInvalidGameState, "session is not in progress")
	}
	if killer == victim {
		return apperrors.New(apperrors.CodeSelfKillNotAllowed, "killer and victim are the same player")
	}

	kTeam, err := s.Team(killerTeam)
	if err != nil {
		return err
	}
	vTeam, err := s.Team(victimTeam)
	if err != nil {
		return err
	}
	killerIdx, ok := kTeam.PlayerIndex(killer)
	if !ok {
		return apperrors.New(apperrors.CodePlayerNotFound, "killer not found in claimed team")
	}
	victimIdx, ok := vTeam.PlayerIndex(victim)
	if !ok {
		return apperrors.New(apperrors.CodePlayerNotFound, "victim not found in claimed team")
	}

	if kTeam.Kills[killerIdx] == math.MaxUint16 {
		return apperrors.New(apperrors.CodeKillCountOverflow, "kill counter at maximum")
	}
	if vTeam.Spawns[victimIdx] == 0 {
		return apperrors.New(apperrors.CodePlayerHasNoSpawns, "victim has no spawns remaining")
	}

	kTeam.Kills[killerIdx]++
	vTeam.Spawns[victimIdx]--
	return nil
}

// AddSpawns credits the session's configured spawn increment to the
// player's slot, clamped by the per-player cap.
func (s *Session) AddSpawns(teamIndex int, player string, maxSpawns uint16) error {
	if s.Status != StatusInProgress {
		return apperrors.New(apperrors.CodeInvalidGameState, "session is not in progress")
	}
	if !s.Mode.PayToSpawn() {
		return apperrors.New(apperrors.CodeInvalidGameMode, "mode does not allow purchasing spawns")
	}
	team, err := s.Team(teamIndex)
	if err != nil {
		return err
	}
	slot, ok := team.PlayerIndex(player)
	if !ok {
		return apperrors.New(apperrors.CodePlayerNotFound, "player not found in team")
	}

	newSpawns, err := checkedAddU16(team.Spawns[slot], s.SpawnsPerPurchase)
	if err != nil {
		return err
	}
	if maxSpawns > 0 && newSpawns > maxSpawns {
		return apperrors.WithMetadata(apperrors.CodeMaxSpawnsExceeded,
			"spawn purchase exceeds per-player cap",
			map[string]string{"Max": strconv.FormatUint(uint64(maxSpawns), 10)})
	}
	team.Spawns[slot] = newSpawns
	return nil
}

// KillsAndSpawns returns the settlement score for one player.
func (s Session) KillsAndSpawns(player string) (uint16, error) {
	team, index, err := s.PlayerTeamAndIndex(player)
	if err != nil {
		return 0, err
	}
	var t Team
	if team == TeamA {
		t = s.TeamA
	} else {
		t = s.TeamB
	}
	return checkedAddU16(t.Kills[index], t.Spawns[index])
}

// Players returns every claimed player account across both teams, team A
// slots first.
func (s Session) Players() []string {
	players := make([]string, 0, len(s.TeamA.Players)+len(s.TeamB.Players))
	for _, p := range s.TeamA.Players {
		if p != "" {
			players = append(players, p)
		}
	}
	for _, p := range s.TeamB.Players {
		if p != "" {
			players = append(players, p)
		}
	}
	return players
}

// MarkCompleted ends kill and spawn recording for the session.
func (s *Session) MarkCompleted() error {
	if s.Status != StatusInProgress {
		return apperrors.New(apperrors.CodeInvalidGameState, "session is not in progress")
	}
	s.Status = StatusCompleted
	return nil
}

// MarkDistributed records a fully successful settlement.
func (s *Session) MarkDistributed() error {
	if s.Status != StatusCompleted {
		return apperrors.New(apperrors.CodeInvalidGameState, "session is not completed")
	}
	s.Status = StatusDistributed
	return nil
}
