package domain

import (
	"math"
	"testing"
	"time"

	apperrors "github.com/frontline-gg/wagervault/internal/errors"
)

var testConfig = Config{
	MinBet:            1000,
	MaxBet:            1_000_000_000,
	TTL:               2 * time.Hour,
	SpawnsPerPurchase: 10,
	MaxSpawns:         100,
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newTestSession(t *testing.T, mode Mode) Session {
	t.Helper()
	s, err := NewSession(NewSessionInput{
		SessionID: "match-1",
		Authority: "server-1",
		BetAmount: 1000,
		Mode:      mode,
	}, testConfig, fixedNow)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func joinAll(t *testing.T, s *Session, players ...string) {
	t.Helper()
	half := len(players) / 2
	for i, p := range players {
		team := TeamA
		if i >= half {
			team = TeamB
		}
		if _, err := s.Join(p, team, fixedNow()); err != nil {
			t.Fatalf("join %s: %v", p, err)
		}
	}
}

func TestNewSessionValidation(t *testing.T) {
	cases := []struct {
		name  string
		input NewSessionInput
		code  apperrors.Code
	}{
		{"short id", NewSessionInput{SessionID: "ab", BetAmount: 1000, Mode: ModeWinnerTakesAll1v1}, apperrors.CodeSessionIDTooShort},
		{"long id", NewSessionInput{SessionID: "abcdefghijklmnopqrstuvwxyz0123456", BetAmount: 1000, Mode: ModeWinnerTakesAll1v1}, apperrors.CodeSessionIDTooLong},
		{"zero bet", NewSessionInput{SessionID: "match-1", BetAmount: 0, Mode: ModeWinnerTakesAll1v1}, apperrors.CodeInvalidBetAmount},
		{"bet below minimum", NewSessionInput{SessionID: "match-1", BetAmount: 999, Mode: ModeWinnerTakesAll1v1}, apperrors.CodeBetAmountTooLow},
		{"bet above maximum", NewSessionInput{SessionID: "match-1", BetAmount: 1_000_000_001, Mode: ModeWinnerTakesAll1v1}, apperrors.CodeBetAmountTooHigh},
		{"bad mode", NewSessionInput{SessionID: "match-1", BetAmount: 1000, Mode: "capture-the-flag"}, apperrors.CodeInvalidGameMode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSession(tc.input, testConfig, fixedNow)
			if !apperrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestNewSessionDefaults(t *testing.T) {
	s := newTestSession(t, ModePayToSpawn3v3)
	if s.Status != StatusWaitingForPlayers {
		t.Fatalf("status = %s, want %s", s.Status, StatusWaitingForPlayers)
	}
	if len(s.TeamA.Players) != 3 || len(s.TeamB.Players) != 3 {
		t.Fatalf("expected 3 slots per team")
	}
	if !s.ExpiresAt.After(s.CreatedAt) {
		t.Fatal("expires_at must be after created_at")
	}
	if s.SpawnsPerPurchase != 10 {
		t.Fatalf("spawns per purchase = %d, want 10", s.SpawnsPerPurchase)
	}
}

func TestJoinClaimsSlotAndStartsGame(t *testing.T) {
	s := newTestSession(t, ModeWinnerTakesAll1v1)

	slot, err := s.Join("p1", TeamA, fixedNow())
	if err != nil {
		t.Fatalf("join p1: %v", err)
	}
	if slot != 0 {
		t.Fatalf("slot = %d, want 0", slot)
	}
	if s.Status != StatusWaitingForPlayers {
		t.Fatal("session must wait until both teams are full")
	}
	if s.TeamA.Spawns[0] != 1 {
		t.Fatalf("winner-takes-all spawns = %d, want 1", s.TeamA.Spawns[0])
	}

	if _, err := s.Join("p2", TeamB, fixedNow()); err != nil {
		t.Fatalf("join p2: %v", err)
	}
	if s.Status != StatusInProgress {
		t.Fatalf("status = %s, want %s after last slot fills", s.Status, StatusInProgress)
	}
	if s.TeamA.TotalBet != 1000 || s.TeamB.TotalBet != 1000 {
		t.Fatalf("team totals = %d/%d, want 1000/1000", s.TeamA.TotalBet, s.TeamB.TotalBet)
	}
}

func TestJoinRejectsDuplicateAcrossTeams(t *testing.T) {
	s := newTestSession(t, ModeWinnerTakesAll2v2)
	if _, err := s.Join("p1", TeamA, fixedNow()); err != nil {
		t.Fatalf("join: %v", err)
	}

	_, err := s.Join("p1", TeamB, fixedNow())
	if !apperrors.IsCode(err, apperrors.CodePlayerAlreadyJoined) {
		t.Fatalf("expected %s, got %v", apperrors.CodePlayerAlreadyJoined, err)
	}
}

func TestJoinRejectsFullTeam(t *testing.T) {
	s := newTestSession(t, ModeWinnerTakesAll1v1)
	if _, err := s.Join("p1", TeamA, fixedNow()); err != nil {
		t.Fatalf("join: %v", err)
	}

	_, err := s.Join("p2", TeamA, fixedNow())
	if !apperrors.IsCode(err, apperrors.CodeTeamIsFull) {
		t.Fatalf("expected %s, got %v", apperrors.CodeTeamIsFull, err)
	}
}

func TestJoinRejectsBadTeamIndex(t *testing.T) {
	s := newTestSession(t, ModeWinnerTakesAll1v1)
	_, err := s.Join("p1", 2, fixedNow())
	if !apperrors.IsCode(err, apperrors.CodeInvalidTeamSelection) {
		t.Fatalf("expected %s, got %v", apperrors.CodeInvalidTeamSelection, err)
	}
}

func TestJoinRejectsExpiredSession(t *testing.T) {
	s := newTestSession(t, ModeWinnerTakesAll1v1)
	late := fixedNow().Add(testConfig.TTL + time.Second)

	_, err := s.Join("p1", TeamA, late)
	if !apperrors.IsCode(err, apperrors.CodeGameNotJoinable) {
		t.Fatalf("expected %s, got %v", apperrors.CodeGameNotJoinable, err)
	}
}

func TestJoinStartedSessionReportsFullTeam(t *testing.T) {
	s := newTestSession(t, ModeWinnerTakesAll1v1)
	joinAll(t, &s, "p1", "p2")

	// A late join re-reads the session after the winning commit started
	// the match and must see the full team, not the status change.
	_, err := s.Join("p3", TeamA, fixedNow())
	if !apperrors.IsCode(err, apperrors.CodeTeamIsFull) {
		t.Fatalf("expected %s, got %v", apperrors.CodeTeamIsFull, err)
	}
}

func TestJoinRejectsFinishedSession(t *testing.T) {
	s := newTestSession(t, ModeWinnerTakesAll1v1)
	joinAll(t, &s, "p1", "p2")
	if err := s.MarkCompleted(); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	_, err := s.Join("p3", TeamA, fixedNow())
	if !apperrors.IsCode(err, apperrors.CodeInvalidGameState) {
		t.Fatalf("expected %s, got %v", apperrors.CodeInvalidGameState, err)
	}
}

func TestLeaveReleasesSlot(t *testing.T) {
	s := newTestSession(t, ModeWinnerTakesAll2v2)
	if _, err := s.Join("p1", TeamA, fixedNow()); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := s.Leave("p1", TeamA, fixedNow()); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if s.TeamA.ContainsPlayer("p1") {
		t.Fatal("slot still claimed after leave")
	}
	if s.TeamA.TotalBet != 0 {
		t.Fatalf("team total = %d, want 0 after leave", s.TeamA.TotalBet)
	}

	// The freed slot is claimable again.
	if _, err := s.Join("p1", TeamA, fixedNow()); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
}

func TestLeaveRejectsUnknownPlayer(t *testing.T) {
	s := newTestSession(t, ModeWinnerTakesAll2v2)
	err := s.Leave("ghost", TeamA, fixedNow())
	if !apperrors.IsCode(err, apperrors.CodePlayerNotFound) {
		t.Fatalf("expected %s, got %v", apperrors.CodePlayerNotFound, err)
	}
}

func TestRecordKill(t *testing.T) {
	s := newTestSession(t, ModePayToSpawn1v1)
	joinAll(t, &s, "p1", "p2")

	if err := s.RecordKill(TeamA, "p1", TeamB, "p2"); err != nil {
		t.Fatalf("record kill: %v", err)
	}
	if s.TeamA.Kills[0] != 1 {
		t.Fatalf("killer kills = %d, want 1", s.TeamA.Kills[0])
	}
	if s.TeamB.Spawns[0] != 9 {
		t.Fatalf("victim spawns = %d, want 9", s.TeamB.Spawns[0])
	}
}

func TestRecordKillRejectsSelfKill(t *testing.T) {
	s := newTestSession(t, ModePayToSpawn1v1)
	joinAll(t, &s, "p1", "p2")

	err := s.RecordKill(TeamA, "p1", TeamA, "p1")
	if !apperrors.IsCode(err, apperrors.CodeSelfKillNotAllowed) {
		t.Fatalf("expected %s, got %v", apperrors.CodeSelfKillNotAllowed, err)
	}
}

func TestRecordKillExhaustsSpawns(t *testing.T) {
	s := newTestSession(t, ModePayToSpawn1v1)
	joinAll(t, &s, "p1", "p2")

	for i := 0; i < 10; i++ {
		if err := s.RecordKill(TeamA, "p1", TeamB, "p2"); err != nil {
			t.Fatalf("kill %d: %v", i+1, err)
		}
	}
	if s.TeamB.Spawns[0] != 0 {
		t.Fatalf("victim spawns = %d, want 0", s.TeamB.Spawns[0])
	}

	err := s.RecordKill(TeamA, "p1", TeamB, "p2")
	if !apperrors.IsCode(err, apperrors.CodePlayerHasNoSpawns) {
		t.Fatalf("expected %s, got %v", apperrors.CodePlayerHasNoSpawns, err)
	}
	if s.TeamA.Kills[0] != 10 {
		t.Fatalf("rejected kill must not change counters, kills = %d", s.TeamA.Kills[0])
	}
	if s.TeamB.Spawns[0] != 0 {
		t.Fatal("victim spawns went below zero")
	}
}

func TestRecordKillCounterOverflow(t *testing.T) {
	s := newTestSession(t, ModePayToSpawn1v1)
	joinAll(t, &s, "p1", "p2")
	s.TeamA.Kills[0] = math.MaxUint16
	s.TeamB.Spawns[0] = 5

	err := s.RecordKill(TeamA, "p1", TeamB, "p2")
	if !apperrors.IsCode(err, apperrors.CodeKillCountOverflow) {
		t.Fatalf("expected %s, got %v", apperrors.CodeKillCountOverflow, err)
	}
	if s.TeamB.Spawns[0] != 5 {
		t.Fatal("victim spawns changed on rejected kill")
	}
}

func TestRecordKillRequiresInProgress(t *testing.T) {
	s := newTestSession(t, ModePayToSpawn1v1)
	err := s.RecordKill(TeamA, "p1", TeamB, "p2")
	if !apperrors.IsCode(err, apperrors.CodeInvalidGameState) {
		t.Fatalf("expected %s, got %v", apperrors.CodeInvalidGameState, err)
	}
}

func TestAddSpawns(t *testing.T) {
	s := newTestSession(t, ModePayToSpawn1v1)
	joinAll(t, &s, "p1", "p2")

	if err := s.AddSpawns(TeamA, "p1", testConfig.MaxSpawns); err != nil {
		t.Fatalf("add spawns: %v", err)
	}
	if s.TeamA.Spawns[0] != 20 {
		t.Fatalf("spawns = %d, want 20", s.TeamA.Spawns[0])
	}
}

func TestAddSpawnsRespectsCap(t *testing.T) {
	s := newTestSession(t, ModePayToSpawn1v1)
	joinAll(t, &s, "p1", "p2")
	s.TeamA.Spawns[0] = 95

	err := s.AddSpawns(TeamA, "p1", testConfig.MaxSpawns)
	if !apperrors.IsCode(err, apperrors.CodeMaxSpawnsExceeded) {
		t.Fatalf("expected %s, got %v", apperrors.CodeMaxSpawnsExceeded, err)
	}
	if s.TeamA.Spawns[0] != 95 {
		t.Fatal("spawns changed on rejected purchase")
	}
}

func TestAddSpawnsRejectsWinnerTakesAll(t *testing.T) {
	s := newTestSession(t, ModeWinnerTakesAll1v1)
	joinAll(t, &s, "p1", "p2")

	err := s.AddSpawns(TeamA, "p1", testConfig.MaxSpawns)
	if !apperrors.IsCode(err, apperrors.CodeInvalidGameMode) {
		t.Fatalf("expected %s, got %v", apperrors.CodeInvalidGameMode, err)
	}
}

func TestStatusTransitions(t *testing.T) {
	s := newTestSession(t, ModeWinnerTakesAll1v1)

	if err := s.MarkCompleted(); !apperrors.IsCode(err, apperrors.CodeInvalidGameState) {
		t.Fatalf("expected %s before start, got %v", apperrors.CodeInvalidGameState, err)
	}

	joinAll(t, &s, "p1", "p2")
	if err := s.MarkCompleted(); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if err := s.MarkDistributed(); err != nil {
		t.Fatalf("mark distributed: %v", err)
	}
	if err := s.MarkDistributed(); !apperrors.IsCode(err, apperrors.CodeInvalidGameState) {
		t.Fatalf("expected %s on double distribute, got %v", apperrors.CodeInvalidGameState, err)
	}
}

func TestIsStatusTransitionAllowed(t *testing.T) {
	allowed := [][2]Status{
		{StatusWaitingForPlayers, StatusInProgress},
		{StatusInProgress, StatusCompleted},
		{StatusCompleted, StatusDistributed},
	}
	for _, pair := range allowed {
		if !IsStatusTransitionAllowed(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s allowed", pair[0], pair[1])
		}
	}
	denied := [][2]Status{
		{StatusInProgress, StatusWaitingForPlayers},
		{StatusCompleted, StatusInProgress},
		{StatusDistributed, StatusCompleted},
		{StatusWaitingForPlayers, StatusCompleted},
	}
	for _, pair := range denied {
		if IsStatusTransitionAllowed(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s denied", pair[0], pair[1])
		}
	}
}

func TestKillsAndSpawns(t *testing.T) {
	s := newTestSession(t, ModePayToSpawn1v1)
	joinAll(t, &s, "p1", "p2")
	s.TeamA.Kills[0] = 5
	s.TeamA.Spawns[0] = 7

	score, err := s.KillsAndSpawns("p1")
	if err != nil {
		t.Fatalf("kills and spawns: %v", err)
	}
	if score != 12 {
		t.Fatalf("score = %d, want 12", score)
	}
}

func TestTeamEliminated(t *testing.T) {
	s := newTestSession(t, ModePayToSpawn1v1)
	joinAll(t, &s, "p1", "p2")
	if s.TeamB.Eliminated() {
		t.Fatal("team with spawns reported eliminated")
	}
	s.TeamB.Spawns[0] = 0
	if !s.TeamB.Eliminated() {
		t.Fatal("team without spawns not reported eliminated")
	}
	if NewTeam(3).Eliminated() {
		t.Fatal("empty team must not report eliminated")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	s := newTestSession(t, ModePayToSpawn1v1)
	joinAll(t, &s, "p1", "p2")

	cloned := s.Clone()
	cloned.TeamA.Kills[0] = 42
	if s.TeamA.Kills[0] == 42 {
		t.Fatal("clone shares kill counter storage with original")
	}
}
