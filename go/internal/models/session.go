package models

import "time"

// SessionState defines the lifecycle state of a session.
type SessionState string

const (
	SessionStateLobby      SessionState = "LOBBY"
	SessionStateInProgress SessionState = "IN_PROGRESS"
	SessionStateEnded      SessionState = "ENDED"
)

// SessionSummary is a read-only view of a live session.
type SessionSummary struct {
	ID              string       `json:"id"`
	State           SessionState `json:"state"`
	HostID          *string      `json:"host_id,omitempty"`
	PlayerCount     int          `json:"player_count"`
	ConnectedCount  int          `json:"connected_count"`
	QuestionCount   int          `json:"question_count"`
	CurrentQuestion int          `json:"current_question"`
	StartedAt       *time.Time   `json:"started_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// SessionSnapshot is the immutable settlement record of a finished session.
type SessionSnapshot struct {
	ID        string     `json:"id"`
	Players   []Player   `json:"players"`
	Winner    *string    `json:"winner"`
	Questions []Question `json:"questions"`
	StartTime time.Time  `json:"startTime"`
	EndTime   time.Time  `json:"endTime"`
}
