package trivia

import (
	"sync"
	"time"

	"github.com/mcdev12/trivia/go/internal/models"
)

// TimerHandle is a pending scheduled action owned by a session.
// Cancel must be idempotent.
type TimerHandle interface {
	Cancel()
}

// Session is a room's full game state. All fields are guarded by the session
// lock; callers take it with Lock and release it with Unlock.
type Session struct {
	mu sync.Mutex

	ID                   string
	State                models.SessionState
	Players              []*models.Player
	Questions            []models.Question
	CurrentQuestionIndex int
	HostID               *string
	Winner               *string
	CreatedAt            time.Time
	StartTime            time.Time
	EndTime              time.Time

	// creatorID is the connection that opened the session. It authored the
	// answers and never scores, even after the host role moves on.
	creatorID   string
	roundActive bool
	activeTimer TimerHandle
	closed      bool
}

func newSession(id, hostName, connID string, now time.Time) *Session {
	host := &models.Player{
		ID:        connID,
		Name:      hostName,
		Role:      models.RoleHost,
		Connected: true,
	}
	hostID := connID
	return &Session{
		ID:        id,
		State:     models.SessionStateLobby,
		Players:   []*models.Player{host},
		HostID:    &hostID,
		CreatedAt: now,
		creatorID: connID,
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Closed reports whether the session was removed from the registry.
// Handlers and timer callbacks must check it after taking the lock.
func (s *Session) Closed() bool {
	return s.closed
}

// RoundActive reports whether a question is open for guesses.
func (s *Session) RoundActive() bool {
	return s.roundActive
}

// Join appends a participant. Only allowed while the session is in the lobby.
func (s *Session) Join(name, connID string, maxAttempts int) (*models.Player, error) {
	if s.State != models.SessionStateLobby {
		return nil, ErrSessionInProgress
	}

	player := &models.Player{
		ID:           connID,
		Name:         name,
		Role:         models.RoleParticipant,
		AttemptsLeft: maxAttempts,
		Connected:    true,
	}
	s.Players = append(s.Players, player)
	return player, nil
}

// SetQuestions replaces the question list wholesale. Host only, lobby only.
func (s *Session) SetQuestions(connID string, questions []models.Question) error {
	if !s.isHost(connID) {
		return ErrNotAuthorized
	}
	if s.State != models.SessionStateLobby {
		return ErrSessionInProgress
	}
	s.Questions = questions
	return nil
}

// Start moves the session out of the lobby. The first round is started by the
// scheduler.
func (s *Session) Start(connID string, minPlayers int, now time.Time) error {
	if s.State != models.SessionStateLobby {
		return ErrSessionInProgress
	}
	if !s.isHost(connID) {
		return ErrNotAuthorized
	}
	if len(s.Players) < minPlayers {
		return ErrInsufficientPlayers
	}
	if len(s.Questions) == 0 {
		return ErrNoQuestions
	}

	s.State = models.SessionStateInProgress
	s.CurrentQuestionIndex = 0
	s.StartTime = now
	return nil
}

func (s *Session) isHost(connID string) bool {
	return s.HostID != nil && *s.HostID == connID
}

// PlayerByConn returns the player bound to connID, or nil.
func (s *Session) PlayerByConn(connID string) *models.Player {
	for _, p := range s.Players {
		if p.ID == connID {
			return p
		}
	}
	return nil
}

// CurrentQuestion returns the question at the current index.
func (s *Session) CurrentQuestion() (models.Question, bool) {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Questions) {
		return models.Question{}, false
	}
	return s.Questions[s.CurrentQuestionIndex], true
}

// Exhausted reports whether every question has been played.
func (s *Session) Exhausted() bool {
	return s.CurrentQuestionIndex >= len(s.Questions)
}

// BeginRound resets per-round player state and opens the round for guesses.
func (s *Session) BeginRound(maxAttempts int) {
	for _, p := range s.Players {
		p.AttemptsLeft = maxAttempts
		p.GuessedCorrectly = false
	}
	s.Winner = nil
	s.roundActive = true
}

// CloseRoundOnTimeout ends the round with no winner and locks out late guesses.
func (s *Session) CloseRoundOnTimeout() {
	for _, p := range s.Players {
		p.AttemptsLeft = 0
	}
	s.roundActive = false
}

// Advance moves to the next question.
func (s *Session) Advance() {
	s.CurrentQuestionIndex++
}

// SetActiveTimer installs h as the session's pending action, cancelling any
// previous one.
func (s *Session) SetActiveTimer(h TimerHandle) {
	if s.activeTimer != nil && s.activeTimer != h {
		s.activeTimer.Cancel()
	}
	s.activeTimer = h
}

// IsActiveTimer reports whether h is still the session's pending action.
func (s *Session) IsActiveTimer(h TimerHandle) bool {
	return s.activeTimer != nil && s.activeTimer == h
}

// CancelTimer cancels and clears the pending action, if any.
func (s *Session) CancelTimer() {
	if s.activeTimer != nil {
		s.activeTimer.Cancel()
		s.activeTimer = nil
	}
}

// MarkDisconnected flags the player on connID as gone and hands the host role
// to the first connected player in join order when the host leaves. The
// player record is kept for settlement.
func (s *Session) MarkDisconnected(connID string) (found bool, newHost *models.Player) {
	player := s.PlayerByConn(connID)
	if player == nil {
		return false, nil
	}
	player.Connected = false

	if !s.isHost(connID) {
		return true, nil
	}

	player.Role = models.RoleParticipant
	s.HostID = nil
	for _, p := range s.Players {
		if p.Connected {
			p.Role = models.RoleHost
			id := p.ID
			s.HostID = &id
			return true, p
		}
	}
	return true, nil
}

// ConnectedCount returns the number of players still connected.
func (s *Session) ConnectedCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// PlayersView returns a copy of the player list safe to hand to other
// goroutines.
func (s *Session) PlayersView() []models.Player {
	out := make([]models.Player, len(s.Players))
	for i, p := range s.Players {
		out[i] = *p
	}
	return out
}

// Snapshot builds the immutable settlement record.
func (s *Session) Snapshot(winner *string, end time.Time) models.SessionSnapshot {
	questions := make([]models.Question, len(s.Questions))
	copy(questions, s.Questions)

	start := s.StartTime
	if start.IsZero() {
		start = s.CreatedAt
	}
	return models.SessionSnapshot{
		ID:        s.ID,
		Players:   s.PlayersView(),
		Winner:    winner,
		Questions: questions,
		StartTime: start,
		EndTime:   end,
	}
}

// Summary returns a read-only view of the session.
func (s *Session) Summary() models.SessionSummary {
	summary := models.SessionSummary{
		ID:              s.ID,
		State:           s.State,
		PlayerCount:     len(s.Players),
		ConnectedCount:  s.ConnectedCount(),
		QuestionCount:   len(s.Questions),
		CurrentQuestion: s.CurrentQuestionIndex,
		CreatedAt:       s.CreatedAt,
	}
	if s.HostID != nil {
		id := *s.HostID
		summary.HostID = &id
	}
	if !s.StartTime.IsZero() {
		start := s.StartTime
		summary.StartedAt = &start
	}
	return summary
}
