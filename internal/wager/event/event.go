// Package event carries wagering session lifecycle notifications from the
// service layer to streaming subscribers.
package event

import "time"

// Type names one kind of session event.
type Type string

// Session event types, in rough lifecycle order.
const (
	TypeSessionCreated   Type = "session_created"
	TypePlayerJoined     Type = "player_joined"
	TypePlayerLeft       Type = "player_left"
	TypeSessionStarted   Type = "session_started"
	TypeKillRecorded     Type = "kill_recorded"
	TypeSpawnsPurchased  Type = "spawns_purchased"
	TypeSessionCompleted Type = "session_completed"
	TypeFundsDistributed Type = "funds_distributed"
)

// Event is one session lifecycle notification.
type Event struct {
	Type      Type      `json:"type"`
	SessionID string    `json:"session_id"`
	Actor     string    `json:"actor,omitempty"`
	Target    string    `json:"target,omitempty"`
	Team      int       `json:"team,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	At        time.Time `json:"at"`
}
