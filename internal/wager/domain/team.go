package domain

import (
	"math"

	apperrors "github.com/frontline-gg/wagervault/internal/errors"
)

// Team holds one side's slot assignments and per-slot counters. The three
// slices are parallel and always sized to the mode's players-per-team.
// An empty string marks an unclaimed slot.
type Team struct {
	Players  []string
	Kills    []uint16
	Spawns   []uint16
	TotalBet uint64
}

// NewTeam creates an empty team with capacity for size players.
func NewTeam(size int) Team {
	return Team{
		Players: make([]string, size),
		Kills:   make([]uint16, size),
		Spawns:  make([]uint16, size),
	}
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (t Team) Clone() Team {
	cloned := Team{
		Players:  append([]string(nil), t.Players...),
		Kills:    append([]uint16(nil), t.Kills...),
		Spawns:   append([]uint16(nil), t.Spawns...),
		TotalBet: t.TotalBet,
	}
	return cloned
}

// EmptySlot returns the first unclaimed slot index, or false when full.
func (t Team) EmptySlot() (int, bool) {
	for i, player := range t.Players {
		if player == "" {
			return i, true
		}
	}
	return 0, false
}

// IsFull reports whether every slot is claimed.
func (t Team) IsFull() bool {
	_, ok := t.EmptySlot()
	return !ok
}

// ContainsPlayer reports whether the player occupies a slot in this team.
func (t Team) ContainsPlayer(player string) bool {
	_, ok := t.PlayerIndex(player)
	return ok
}

// PlayerIndex returns the slot index occupied by the player.
func (t Team) PlayerIndex(player string) (int, bool) {
	if player == "" {
		return 0, false
	}
	for i, p := range t.Players {
		if p == player {
			return i, true
		}
	}
	return 0, false
}

// ActivePlayerCount returns the number of claimed slots.
func (t Team) ActivePlayerCount() int {
	count := 0
	for _, player := range t.Players {
		if player != "" {
			count++
		}
	}
	return count
}

// Eliminated reports whether every claimed slot is out of spawns.
// An empty team is not considered eliminated.
func (t Team) Eliminated() bool {
	active := false
	for i, player := range t.Players {
		if player == "" {
			continue
		}
		active = true
		if t.Spawns[i] > 0 {
			return false
		}
	}
	return active
}

// TotalKills sums the team's kill counters.
func (t Team) TotalKills() uint32 {
	var total uint32
	for _, kills := range t.Kills {
		total += uint32(kills)
	}
	return total
}

// TotalSpawns sums the team's remaining spawn counters.
func (t Team) TotalSpawns() uint32 {
	var total uint32
	for _, spawns := range t.Spawns {
		total += uint32(spawns)
	}
	return total
}

// checkedAddU16 adds two counters, rejecting wraparound.
func checkedAddU16(a, b uint16) (uint16, error) {
	if a > math.MaxUint16-b {
		return 0, apperrors.New(apperrors.CodeArithmetic, "uint16 addition overflow")
	}
	return a + b, nil
}

// checkedAddU64 adds two amounts, rejecting wraparound.
func checkedAddU64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, apperrors.New(apperrors.CodeArithmetic, "uint64 addition overflow")
	}
	return a + b, nil
}

// checkedMulU64 multiplies two amounts, rejecting wraparound.
func checkedMulU64(a, b uint64) (uint64, error) {
	if a != 0 && b > math.MaxUint64/a {
		return 0, apperrors.New(apperrors.CodeArithmetic, "uint64 multiplication overflow")
	}
	return a * b, nil
}
