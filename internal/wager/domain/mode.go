package domain

import (
	"strings"

	apperrors "github.com/frontline-gg/wagervault/internal/errors"
)

// Mode describes the scoring rule and team size of a session.
type Mode string

const (
	ModeUnspecified Mode = ""

	ModeWinnerTakesAll1v1 Mode = "winner-takes-all-1v1"
	ModeWinnerTakesAll2v2 Mode = "winner-takes-all-2v2"
	ModeWinnerTakesAll3v3 Mode = "winner-takes-all-3v3"
	ModeWinnerTakesAll5v5 Mode = "winner-takes-all-5v5"

	ModePayToSpawn1v1 Mode = "pay-to-spawn-1v1"
	ModePayToSpawn2v2 Mode = "pay-to-spawn-2v2"
	ModePayToSpawn3v3 Mode = "pay-to-spawn-3v3"
	ModePayToSpawn5v5 Mode = "pay-to-spawn-5v5"
)

// winnerTakesAllSpawns is the single life each player holds outside
// pay-to-spawn play.
const winnerTakesAllSpawns uint16 = 1

// payToSpawnStartingSpawns is the spawn count issued on join in
// pay-to-spawn play.
const payToSpawnStartingSpawns uint16 = 10

// ParseMode canonicalizes a mode label.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeWinnerTakesAll1v1:
		return ModeWinnerTakesAll1v1, nil
	case ModeWinnerTakesAll2v2:
		return ModeWinnerTakesAll2v2, nil
	case ModeWinnerTakesAll3v3:
		return ModeWinnerTakesAll3v3, nil
	case ModeWinnerTakesAll5v5:
		return ModeWinnerTakesAll5v5, nil
	case ModePayToSpawn1v1:
		return ModePayToSpawn1v1, nil
	case ModePayToSpawn2v2:
		return ModePayToSpawn2v2, nil
	case ModePayToSpawn3v3:
		return ModePayToSpawn3v3, nil
	case ModePayToSpawn5v5:
		return ModePayToSpawn5v5, nil
	default:
		return ModeUnspecified, apperrors.New(apperrors.CodeInvalidGameMode, "unknown game mode "+value)
	}
}

// Valid reports whether the mode is one of the defined variants.
func (m Mode) Valid() bool {
	_, err := ParseMode(string(m))
	return err == nil
}

// PlayersPerTeam returns the required number of players per team.
func (m Mode) PlayersPerTeam() int {
	switch m {
	case ModeWinnerTakesAll1v1, ModePayToSpawn1v1:
		return 1
	case ModeWinnerTakesAll2v2, ModePayToSpawn2v2:
		return 2
	case ModeWinnerTakesAll3v3, ModePayToSpawn3v3:
		return 3
	case ModeWinnerTakesAll5v5, ModePayToSpawn5v5:
		return 5
	default:
		return 0
	}
}

// PayToSpawn reports whether the mode allows purchasing spawns.
func (m Mode) PayToSpawn() bool {
	switch m {
	case ModePayToSpawn1v1, ModePayToSpawn2v2, ModePayToSpawn3v3, ModePayToSpawn5v5:
		return true
	default:
		return false
	}
}

// StartingSpawns returns the spawn count issued to a player on join.
func (m Mode) StartingSpawns() uint16 {
	if m.PayToSpawn() {
		return payToSpawnStartingSpawns
	}
	return winnerTakesAllSpawns
}
