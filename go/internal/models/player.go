package models

// Role defines a player's role within a session.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

// Player represents a participant's per-session state.
// ID is the connection identifier, Name is a display name and is not unique.
type Player struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Role             Role   `json:"role"`
	Score            int    `json:"score"`
	AttemptsLeft     int    `json:"attemptsLeft"`
	GuessedCorrectly bool   `json:"guessedCorrectly"`
	Connected        bool   `json:"connected"`
}
