package events

import (
	"time"

	"github.com/mcdev12/trivia/go/internal/models"
)

// Event payload types shared between the orchestrator and the gateway.

// Inbound event names.
const (
	CreateSession = "create_session"
	JoinSession   = "join_session"
	AddQuestions  = "add_questions"
	StartGame     = "start_game"
	SubmitGuess   = "submit_guess"
	ChatSend      = "chat:send"
)

// Outbound event names.
const (
	SessionCreated = "session:created"
	RoleAssigned   = "role:assigned"
	MessageNew     = "message:new"
	GameQuestion   = "game:question"
	QuestionEnded  = "question:ended"
	GameEnded      = "game:ended"
	GuessResult    = "guess:result"
	ChatNew        = "chat:new"
)

// MessageTypeSystem marks server generated notices.
const MessageTypeSystem = "system"

// CreateSessionPayload is the payload for create_session
type CreateSessionPayload struct {
	SessionID string `json:"sessionId"`
	HostName  string `json:"hostName"`
}

// JoinSessionPayload is the payload for join_session
type JoinSessionPayload struct {
	SessionID string `json:"sessionId"`
	UserName  string `json:"userName"`
}

// QuestionInput is a single question as submitted by the host.
type QuestionInput struct {
	QuestionText string `json:"questionText"`
	Answer       string `json:"answer"`
	Duration     int    `json:"duration"`
}

// AddQuestionsPayload is the payload for add_questions
type AddQuestionsPayload struct {
	SessionID string          `json:"sessionId"`
	Questions []QuestionInput `json:"questions"`
}

// StartGamePayload is the payload for start_game
type StartGamePayload struct {
	SessionID string `json:"sessionId"`
}

// SubmitGuessPayload is the payload for submit_guess
type SubmitGuessPayload struct {
	SessionID string `json:"sessionId"`
	Guess     string `json:"guess"`
}

// ChatSendPayload is the payload for chat:send
type ChatSendPayload struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// SessionCreatedPayload is broadcast when a room opens
type SessionCreatedPayload struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// RoleAssignedPayload tells a connection which role it holds
type RoleAssignedPayload struct {
	Role models.Role `json:"role"`
}

// MessagePayload is a system notice
type MessagePayload struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// GameQuestionPayload announces the active question
type GameQuestionPayload struct {
	Question       string          `json:"question"`
	QuestionIndex  int             `json:"questionIndex"`
	TotalQuestions int             `json:"totalQuestions"`
	Duration       int             `json:"duration"`
	Players        []models.Player `json:"players"`
}

// QuestionEndedPayload closes a round
type QuestionEndedPayload struct {
	Winner  *string         `json:"winner"`
	Answer  string          `json:"answer"`
	Players []models.Player `json:"players"`
	Message string          `json:"message,omitempty"`
}

// GameEndedPayload closes the session
type GameEndedPayload struct {
	Players []models.Player `json:"players"`
	Winner  *string         `json:"winner"`
}

// GuessResultPayload is sent privately to a guesser
type GuessResultPayload struct {
	Correct      bool `json:"correct"`
	AttemptsLeft int  `json:"attemptsLeft"`
}

// ChatNewPayload relays a chat line to the room
type ChatNewPayload struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// SessionEndedPayload is published to the event stream after settlement
type SessionEndedPayload struct {
	Snapshot  models.SessionSnapshot `json:"snapshot"`
	Duration  string                 `json:"duration"`
	SettledAt time.Time              `json:"settled_at"`
}
