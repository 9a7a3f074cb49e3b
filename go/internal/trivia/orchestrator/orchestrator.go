package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/trivia/go/internal/models"
	"github.com/mcdev12/trivia/go/internal/trivia"
	"github.com/mcdev12/trivia/go/internal/trivia/events"
	"github.com/rs/zerolog/log"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// Broadcaster is the duplex transport the orchestrator talks through.
// Implementations must not block the caller: every call is made while a
// session lock is held.
type Broadcaster interface {
	JoinRoom(connID, roomID string)
	Broadcast(roomID, event string, payload any)
	SendTo(connID, event string, payload any)
	CloseRoom(roomID string)
}

// UserStore is the identity collaborator
type UserStore interface {
	FindOrCreate(ctx context.Context, name string) (*models.User, error)
}

// SnapshotStore receives the settlement record of finished sessions
type SnapshotStore interface {
	Save(ctx context.Context, snapshot models.SessionSnapshot) error
}

// Config holds the game tuning knobs
type Config struct {
	SettlePause         time.Duration
	Durations           trivia.DurationPolicy
	MinPlayers          int
	MaxAttempts         int
	PointsPerCorrect    int
	CollaboratorTimeout time.Duration
}

// DefaultConfig returns the standard game rules
func DefaultConfig() Config {
	return Config{
		SettlePause:         4 * time.Second,
		Durations:           trivia.DefaultDurationPolicy(),
		MinPlayers:          2,
		MaxAttempts:         3,
		PointsPerCorrect:    10,
		CollaboratorTimeout: 5 * time.Second,
	}
}

// Orchestrator binds the session registry, the question scheduler and the
// disconnect coordinator to inbound protocol events and outbound broadcasts.
type Orchestrator struct {
	registry    *trivia.Registry
	broadcaster Broadcaster
	users       UserStore
	snapshots   SnapshotStore
	config      Config
	clock       Clock
	instanceID  string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewOrchestrator creates a new session orchestrator
func NewOrchestrator(registry *trivia.Registry, broadcaster Broadcaster, users UserStore, snapshots SnapshotStore, config Config) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		registry:    registry,
		broadcaster: broadcaster,
		users:       users,
		snapshots:   snapshots,
		config:      config,
		clock:       clockwork.NewRealClock(),
		instanceID:  uuid.New().String()[:8], // short ID for logging
		ctx:         ctx,
		cancel:      cancel,
	}
}

// CreateSession opens a new room with connID as host
func (o *Orchestrator) CreateSession(ctx context.Context, connID string, req events.CreateSessionPayload) error {
	sessionID := strings.TrimSpace(req.SessionID)
	hostName := strings.TrimSpace(req.HostName)
	if sessionID == "" || hostName == "" {
		return fmt.Errorf("%w: sessionId and hostName are required", trivia.ErrInvalidRequest)
	}

	o.identify(ctx, hostName)

	session, err := o.registry.Create(sessionID, hostName, connID)
	if err != nil {
		return err
	}

	session.Lock()
	defer session.Unlock()

	o.broadcaster.JoinRoom(connID, session.ID)
	o.broadcaster.Broadcast(session.ID, events.SessionCreated, events.SessionCreatedPayload{
		Text:      fmt.Sprintf("%s created the session.", hostName),
		Timestamp: o.clock.Now(),
	})
	o.broadcaster.SendTo(connID, events.RoleAssigned, events.RoleAssignedPayload{Role: models.RoleHost})

	log.Info().
		Str("session_id", session.ID).
		Str("connection_id", connID).
		Str("host", hostName).
		Msg("session created")
	return nil
}

// JoinSession adds connID to a lobby as a participant
func (o *Orchestrator) JoinSession(ctx context.Context, connID string, req events.JoinSessionPayload) error {
	userName := strings.TrimSpace(req.UserName)
	if userName == "" {
		return fmt.Errorf("%w: userName is required", trivia.ErrInvalidRequest)
	}

	session, ok := o.registry.Get(req.SessionID)
	if !ok {
		return trivia.ErrSessionNotFound
	}

	o.identify(ctx, userName)

	session.Lock()
	defer session.Unlock()

	if session.Closed() {
		return trivia.ErrSessionNotFound
	}

	if existing := session.PlayerByConn(connID); existing != nil && existing.Connected {
		o.broadcaster.SendTo(connID, events.RoleAssigned, events.RoleAssignedPayload{Role: existing.Role})
		return nil
	}

	if _, err := session.Join(userName, connID, o.config.MaxAttempts); err != nil {
		return err
	}
	o.registry.Track(connID, session.ID)

	o.broadcaster.JoinRoom(connID, session.ID)
	o.broadcastSystem(session.ID, fmt.Sprintf("%s joined the session.", userName))
	o.broadcaster.SendTo(connID, events.RoleAssigned, events.RoleAssignedPayload{Role: models.RoleParticipant})

	log.Info().
		Str("session_id", session.ID).
		Str("connection_id", connID).
		Str("player", userName).
		Int("players", len(session.Players)).
		Msg("player joined session")
	return nil
}

// AddQuestions replaces the session's question list
func (o *Orchestrator) AddQuestions(ctx context.Context, connID string, req events.AddQuestionsPayload) error {
	session, ok := o.registry.Get(req.SessionID)
	if !ok {
		return trivia.ErrSessionNotFound
	}

	questions := make([]models.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, models.Question{
			Text:            q.QuestionText,
			Answer:          q.Answer,
			DurationSeconds: q.Duration,
		})
	}
	questions = o.config.Durations.NormalizeQuestions(questions)

	session.Lock()
	defer session.Unlock()

	if session.Closed() {
		return trivia.ErrSessionNotFound
	}
	if err := session.SetQuestions(connID, questions); err != nil {
		return err
	}

	o.broadcastSystem(session.ID, fmt.Sprintf("%d questions added by host.", len(questions)))

	log.Info().
		Str("session_id", session.ID).
		Int("questions", len(questions)).
		Msg("questions replaced")
	return nil
}

// StartGame leaves the lobby and opens round one
func (o *Orchestrator) StartGame(ctx context.Context, connID string, req events.StartGamePayload) error {
	session, ok := o.registry.Get(req.SessionID)
	if !ok {
		return trivia.ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	if session.Closed() {
		return trivia.ErrSessionNotFound
	}
	if err := session.Start(connID, o.config.MinPlayers, o.clock.Now()); err != nil {
		return err
	}

	log.Info().
		Str("session_id", session.ID).
		Int("players", len(session.Players)).
		Int("questions", len(session.Questions)).
		Msg("game started")

	o.startRound(session)
	return nil
}

// SubmitGuess grades a guess against the active question
func (o *Orchestrator) SubmitGuess(ctx context.Context, connID string, req events.SubmitGuessPayload) error {
	session, ok := o.registry.Get(req.SessionID)
	if !ok {
		return trivia.ErrInvalidGuessContext
	}

	session.Lock()
	defer session.Unlock()

	if session.Closed() {
		return trivia.ErrInvalidGuessContext
	}

	outcome, err := session.EvaluateGuess(connID, req.Guess, o.config.PointsPerCorrect)
	if err != nil {
		return err
	}

	if outcome.Correct {
		log.Info().
			Str("session_id", session.ID).
			Str("winner", outcome.PlayerName).
			Int("question_index", session.CurrentQuestionIndex).
			Msg("correct guess")
		o.resolveCorrect(session, outcome)
		return nil
	}

	o.broadcaster.SendTo(connID, events.GuessResult, events.GuessResultPayload{
		Correct:      false,
		AttemptsLeft: outcome.AttemptsLeft,
	})
	return nil
}

// SendChat relays a chat line verbatim to everyone in the room. Only an
// empty message is dropped.
func (o *Orchestrator) SendChat(ctx context.Context, connID string, req events.ChatSendPayload) error {
	if req.Message == "" {
		return nil
	}

	session, ok := o.registry.Get(req.SessionID)
	if !ok {
		return trivia.ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	if session.Closed() {
		return trivia.ErrSessionNotFound
	}
	player := session.PlayerByConn(connID)
	if player == nil {
		return trivia.ErrNotInSession
	}

	o.broadcaster.Broadcast(session.ID, events.ChatNew, events.ChatNewPayload{
		User:    player.Name,
		Message: req.Message,
	})
	return nil
}

// Sessions returns a summary of every live session ordered by id
func (o *Orchestrator) Sessions() []models.SessionSummary {
	live := o.registry.All()
	out := make([]models.SessionSummary, 0, len(live))
	for _, s := range live {
		s.Lock()
		if !s.Closed() {
			out = append(out, s.Summary())
		}
		s.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Shutdown stops every pending timer. Sessions themselves are dropped with
// the process.
func (o *Orchestrator) Shutdown() {
	o.cancel()
	for _, s := range o.registry.All() {
		s.Lock()
		s.CancelTimer()
		s.Unlock()
		log.Debug().Str("session_id", s.ID).Msg("cancelled timer on shutdown")
	}
	log.Info().Str("instance", o.instanceID).Msg("orchestrator shut down")
}

// identify records the player identity. Failures never block the game.
func (o *Orchestrator) identify(ctx context.Context, name string) {
	if o.users == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, o.config.CollaboratorTimeout)
	defer cancel()

	if _, err := o.users.FindOrCreate(ctx, name); err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to find or create user")
	}
}

func (o *Orchestrator) broadcastSystem(roomID, text string) {
	o.broadcaster.Broadcast(roomID, events.MessageNew, o.systemMessage(text))
}

func (o *Orchestrator) systemMessage(text string) events.MessagePayload {
	return events.MessagePayload{
		Type:      events.MessageTypeSystem,
		Text:      text,
		Timestamp: o.clock.Now(),
	}
}

// Session returns the summary of a single live session
func (o *Orchestrator) Session(id string) (models.SessionSummary, bool) {
	s, ok := o.registry.Get(id)
	if !ok {
		return models.SessionSummary{}, false
	}
	s.Lock()
	defer s.Unlock()
	if s.Closed() {
		return models.SessionSummary{}, false
	}
	return s.Summary(), true
}
