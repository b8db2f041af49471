// Package rules loads the wagering tunables: bet bounds, session lifetime,
// spawn purchase parameters, and settlement arithmetic.
package rules

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Rules are the operator-tunable parameters of the wagering engine. A
// zero-valued field falls back to its default on Load.
type Rules struct {
	MinBet            uint64 `yaml:"min_bet"`
	MaxBet            uint64 `yaml:"max_bet"`
	SessionTTLSeconds uint64 `yaml:"session_ttl_seconds"`
	SpawnsPerPurchase uint16 `yaml:"spawns_per_purchase"`
	MaxSpawns         uint16 `yaml:"max_spawns"`
	EarningsDivisor   uint64 `yaml:"earnings_divisor"`
	CommitAttempts    int    `yaml:"commit_attempts"`
}

// Default returns the production rule set.
func Default() Rules {
	return Rules{
		MinBet:            1_000,
		MaxBet:            1_000_000_000,
		SessionTTLSeconds: 7_200,
		SpawnsPerPurchase: 10,
		MaxSpawns:         100,
		EarningsDivisor:   10,
		CommitAttempts:    3,
	}
}

// Load reads a YAML rules file and overlays it onto the defaults.
func Load(path string) (Rules, error) {
	r := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("rules file %s: %w", path, err)
	}
	return r.normalized(), nil
}

func (r Rules) normalized() Rules {
	d := Default()
	if r.MinBet == 0 {
		r.MinBet = d.MinBet
	}
	if r.MaxBet == 0 {
		r.MaxBet = d.MaxBet
	}
	if r.SessionTTLSeconds == 0 {
		r.SessionTTLSeconds = d.SessionTTLSeconds
	}
	if r.SpawnsPerPurchase == 0 {
		r.SpawnsPerPurchase = d.SpawnsPerPurchase
	}
	if r.MaxSpawns == 0 {
		r.MaxSpawns = d.MaxSpawns
	}
	if r.EarningsDivisor == 0 {
		r.EarningsDivisor = d.EarningsDivisor
	}
	if r.CommitAttempts <= 0 {
		r.CommitAttempts = d.CommitAttempts
	}
	return r
}

// SessionTTL returns the configured lifetime as a duration.
func (r Rules) SessionTTL() time.Duration {
	return time.Duration(r.SessionTTLSeconds) * time.Second
}
