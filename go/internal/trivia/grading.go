package trivia

import (
	"strings"

	"github.com/mcdev12/trivia/go/internal/models"
)

// DurationPolicy bounds per-question countdowns.
type DurationPolicy struct {
	DefaultSeconds int
	MinSeconds     int
	MaxSeconds     int
}

// DefaultDurationPolicy returns the 60s default clamped to [30, 90].
func DefaultDurationPolicy() DurationPolicy {
	return DurationPolicy{
		DefaultSeconds: 60,
		MinSeconds:     30,
		MaxSeconds:     90,
	}
}

// Clamp maps a requested duration onto the policy. Unset or non-positive
// values take the default.
func (p DurationPolicy) Clamp(seconds int) int {
	if seconds <= 0 {
		seconds = p.DefaultSeconds
	}
	if seconds < p.MinSeconds {
		return p.MinSeconds
	}
	if seconds > p.MaxSeconds {
		return p.MaxSeconds
	}
	return seconds
}

// NormalizeQuestions applies the duration policy to every question.
func (p DurationPolicy) NormalizeQuestions(in []models.Question) []models.Question {
	out := make([]models.Question, len(in))
	for i, q := range in {
		out[i] = models.Question{
			Text:            q.Text,
			Answer:          q.Answer,
			DurationSeconds: p.Clamp(q.DurationSeconds),
		}
	}
	return out
}

// MatchesAnswer compares a guess to the stored answer ignoring case and
// surrounding whitespace.
func MatchesAnswer(guess, answer string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(answer))
}

// ResolveOverallWinner returns the unique highest scorer. An empty list or a
// tie on the maximum score yields nil.
func ResolveOverallWinner(players []models.Player) *models.Player {
	if len(players) == 0 {
		return nil
	}

	best := 0
	tied := false
	for i := 1; i < len(players); i++ {
		switch {
		case players[i].Score > players[best].Score:
			best = i
			tied = false
		case players[i].Score == players[best].Score:
			tied = true
		}
	}
	if tied {
		return nil
	}

	winner := players[best]
	return &winner
}

// GuessOutcome is the result of grading one guess.
type GuessOutcome struct {
	Correct      bool
	PlayerName   string
	AttemptsLeft int
	Answer       string
}

// EvaluateGuess grades a guess from connID against the active question.
// The caller must hold the session lock. ErrInvalidGuessContext is returned
// when the guess must be dropped without any reply.
func (s *Session) EvaluateGuess(connID, rawGuess string, points int) (GuessOutcome, error) {
	if s.State != models.SessionStateInProgress || !s.roundActive {
		return GuessOutcome{}, ErrInvalidGuessContext
	}

	player := s.PlayerByConn(connID)
	if player == nil || player.ID == s.creatorID || player.AttemptsLeft <= 0 {
		return GuessOutcome{}, ErrInvalidGuessContext
	}

	question, ok := s.CurrentQuestion()
	if !ok {
		return GuessOutcome{}, ErrInvalidGuessContext
	}

	if MatchesAnswer(rawGuess, question.Answer) {
		player.Score += points
		player.GuessedCorrectly = true
		name := player.Name
		s.Winner = &name
		s.roundActive = false
		return GuessOutcome{
			Correct:      true,
			PlayerName:   player.Name,
			AttemptsLeft: player.AttemptsLeft,
			Answer:       question.Answer,
		}, nil
	}

	player.AttemptsLeft--
	return GuessOutcome{
		Correct:      false,
		PlayerName:   player.Name,
		AttemptsLeft: player.AttemptsLeft,
	}, nil
}
