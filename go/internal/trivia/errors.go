package trivia

import "errors"

var (
	// ErrSessionNotFound indicates no live session has the requested id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionInProgress indicates the session has left the lobby.
	ErrSessionInProgress = errors.New("session already in progress")
	// ErrDuplicateSession indicates a session with the same id already exists.
	ErrDuplicateSession = errors.New("session already exists")
	// ErrNotAuthorized indicates a non-host attempted a host-only action.
	ErrNotAuthorized = errors.New("only the host can do that")
	// ErrNotInSession indicates the connection has no player in the session.
	ErrNotInSession = errors.New("not a member of this session")
	// ErrInsufficientPlayers indicates the game cannot start with so few players.
	ErrInsufficientPlayers = errors.New("not enough players to start")
	// ErrNoQuestions indicates the game cannot start without questions.
	ErrNoQuestions = errors.New("no questions to play")
	// ErrInvalidGuessContext indicates a guess arrived with no active question
	// or no attempts left. Guesses in this state are dropped silently.
	ErrInvalidGuessContext = errors.New("guess not accepted")
)

// ErrInvalidRequest indicates a malformed inbound payload.
var ErrInvalidRequest = errors.New("invalid request")
