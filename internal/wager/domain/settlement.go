package domain

import (
	apperrors "github.com/frontline-gg/wagervault/internal/errors"
)

// Payout is one planned transfer from the session vault to a recipient.
type Payout struct {
	Account string
	Amount  uint64
}

// Plan is a fully computed settlement: the ordered payouts and their sum.
// Plans are pure values; executing the transfers is the service's job.
type Plan struct {
	Payouts []Payout
	Total   uint64
}

// WinnerTakesAllPlan computes the payout list for a decided match: every
// occupied slot of the winning team receives twice the bet (its own stake
// plus the opposing stake).
func WinnerTakesAllPlan(s Session, winningTeam int) (Plan, error) {
	if s.Mode.PayToSpawn() {
		return Plan{}, apperrors.New(apperrors.CodeInvalidGameMode, "pay-to-spawn sessions settle via earnings")
	}
	if winningTeam != TeamA && winningTeam != TeamB {
		return Plan{}, apperrors.New(apperrors.CodeInvalidWinningTeam, "winning team must be 0 or 1")
	}

	perPlayer, err := checkedMulU64(s.BetAmount, 2)
	if err != nil {
		return Plan{}, err
	}

	team := s.TeamA
	if winningTeam == TeamB {
		team = s.TeamB
	}

	var plan Plan
	for _, player := range team.Players {
		if player == "" {
			continue
		}
		total, err := checkedAddU64(plan.Total, perPlayer)
		if err != nil {
			return Plan{}, err
		}
		plan.Payouts = append(plan.Payouts, Payout{Account: player, Amount: perPlayer})
		plan.Total = total
	}
	if len(plan.Payouts) == 0 {
		return Plan{}, apperrors.New(apperrors.CodePlayerNotFound, "winning team has no players")
	}
	return plan, nil
}

// PaySpawnPlan computes per-player earnings for a pay-to-spawn match:
// floor((kills + remaining spawns) * bet / divisor) for every occupied slot
// with a nonzero score. Players with zero earnings are omitted.
func PaySpawnPlan(s Session, divisor uint64) (Plan, error) {
	if !s.Mode.PayToSpawn() {
		return Plan{}, apperrors.New(apperrors.CodeInvalidGameMode, "winner-takes-all sessions settle via winnings")
	}
	if divisor == 0 {
		return Plan{}, apperrors.New(apperrors.CodeArithmetic, "earnings divisor must be nonzero")
	}

	var plan Plan
	for _, player := range s.Players() {
		score, err := s.KillsAndSpawns(player)
		if err != nil {
			return Plan{}, err
		}
		if score == 0 {
			continue
		}
		product, err := checkedMulU64(uint64(score), s.BetAmount)
		if err != nil {
			return Plan{}, err
		}
		earnings := product / divisor
		if earnings == 0 {
			continue
		}
		total, err := checkedAddU64(plan.Total, earnings)
		if err != nil {
			return Plan{}, err
		}
		plan.Payouts = append(plan.Payouts, Payout{Account: player, Amount: earnings})
		plan.Total = total
	}
	return plan, nil
}
