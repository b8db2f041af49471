package domain

import "strings"

// Status describes the session lifecycle label used by domain decisions.
// Transitions only ever move forward; there is no path backward.
type Status string

const (
	StatusUnspecified       Status = ""
	StatusWaitingForPlayers Status = "waiting-for-players"
	StatusInProgress        Status = "in-progress"
	StatusCompleted         Status = "completed"
	StatusDistributed       Status = "distributed"
)

// ParseStatus canonicalizes a status label.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusWaitingForPlayers:
		return StatusWaitingForPlayers, true
	case StatusInProgress:
		return StatusInProgress, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusDistributed:
		return StatusDistributed, true
	default:
		return StatusUnspecified, false
	}
}

// IsStatusTransitionAllowed enforces the one-directional session lifecycle.
func IsStatusTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusWaitingForPlayers:
		return to == StatusInProgress
	case StatusInProgress:
		return to == StatusCompleted
	case StatusCompleted:
		return to == StatusDistributed
	default:
		return false
	}
}
