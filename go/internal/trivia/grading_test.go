package trivia

import (
	"errors"
	"testing"
	"time"

	"github.com/mcdev12/trivia/go/internal/models"
)

func TestDurationPolicyClamp(t *testing.T) {
	p := DefaultDurationPolicy()
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"unset takes default", 0, 60},
		{"negative takes default", -5, 60},
		{"below min", 10, 30},
		{"at min", 30, 30},
		{"in range", 45, 45},
		{"at max", 90, 90},
		{"above max", 200, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Clamp(tt.in); got != tt.want {
				t.Errorf("Clamp(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchesAnswer(t *testing.T) {
	tests := []struct {
		guess, answer string
		want          bool
	}{
		{" paris ", "Paris", true},
		{"PARIS", "paris", true},
		{"Paris", "  Paris\t", true},
		{"Pariss", "Paris", false},
		{"", "Paris", false},
	}
	for _, tt := range tests {
		if got := MatchesAnswer(tt.guess, tt.answer); got != tt.want {
			t.Errorf("MatchesAnswer(%q, %q) = %v, want %v", tt.guess, tt.answer, got, tt.want)
		}
	}
}

func TestResolveOverallWinner(t *testing.T) {
	tests := []struct {
		name    string
		players []models.Player
		want    string
	}{
		{"empty", nil, ""},
		{"single player", []models.Player{{Name: "Ada", Score: 0}}, "Ada"},
		{"clear leader", []models.Player{{Name: "Host"}, {Name: "Ada", Score: 20}, {Name: "Bob", Score: 10}}, "Ada"},
		{"tie at top", []models.Player{{Name: "Ada", Score: 10}, {Name: "Bob", Score: 10}}, ""},
		{"tie below top", []models.Player{{Name: "Ada", Score: 30}, {Name: "Bob", Score: 10}, {Name: "Cy", Score: 10}}, "Ada"},
		{"everyone zero", []models.Player{{Name: "Host"}, {Name: "Ada"}}, ""},
		{"tie broken later", []models.Player{{Name: "Ada", Score: 10}, {Name: "Bob", Score: 10}, {Name: "Cy", Score: 20}}, "Cy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveOverallWinner(tt.players)
			switch {
			case tt.want == "" && got != nil:
				t.Errorf("expected no winner, got %s", got.Name)
			case tt.want != "" && (got == nil || got.Name != tt.want):
				t.Errorf("expected winner %s, got %v", tt.want, got)
			}
		})
	}
}

func startedSession(t *testing.T) *Session {
	t.Helper()
	s := newSession("room", "Host", "host-conn", time.Now())
	if _, err := s.Join("Ada", "ada-conn", 3); err != nil {
		t.Fatal(err)
	}
	if err := s.SetQuestions("host-conn", []models.Question{{Text: "Capital of France?", Answer: "Paris", DurationSeconds: 30}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Start("host-conn", 2, time.Now()); err != nil {
		t.Fatal(err)
	}
	s.BeginRound(3)
	return s
}

func TestEvaluateGuessCorrect(t *testing.T) {
	s := startedSession(t)

	outcome, err := s.EvaluateGuess("ada-conn", " paris ", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Correct || outcome.Answer != "Paris" || outcome.PlayerName != "Ada" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	ada := s.PlayerByConn("ada-conn")
	if ada.Score != 10 || !ada.GuessedCorrectly {
		t.Errorf("score not applied: %+v", ada)
	}
	if s.Winner == nil || *s.Winner != "Ada" {
		t.Errorf("round winner not recorded")
	}
	if s.RoundActive() {
		t.Error("round should close on a correct guess")
	}

	// A second correct guess after the round closed is dropped
	if _, err := s.EvaluateGuess("ada-conn", "Paris", 10); !errors.Is(err, ErrInvalidGuessContext) {
		t.Errorf("expected ErrInvalidGuessContext, got %v", err)
	}
	if ada.Score != 10 {
		t.Errorf("score changed after round closed: %d", ada.Score)
	}
}

func TestEvaluateGuessAttempts(t *testing.T) {
	s := startedSession(t)

	for want := 2; want >= 0; want-- {
		outcome, err := s.EvaluateGuess("ada-conn", "Lyon", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Correct || outcome.AttemptsLeft != want {
			t.Fatalf("got %+v, want %d attempts left", outcome, want)
		}
	}

	// Out of attempts: even the right answer is ignored
	if _, err := s.EvaluateGuess("ada-conn", "Paris", 10); !errors.Is(err, ErrInvalidGuessContext) {
		t.Fatalf("expected ErrInvalidGuessContext, got %v", err)
	}
	if got := s.PlayerByConn("ada-conn"); got.Score != 0 || got.AttemptsLeft != 0 {
		t.Errorf("unexpected player state %+v", got)
	}
}

func TestEvaluateGuessInvalidContext(t *testing.T) {
	lobby := newSession("room", "Host", "host-conn", time.Now())
	lobby.Join("Ada", "ada-conn", 3)

	exhausted := startedSession(t)
	exhausted.Advance()

	tests := []struct {
		name   string
		s      *Session
		connID string
	}{
		{"lobby", lobby, "ada-conn"},
		{"unknown connection", startedSession(t), "stranger"},
		{"session creator", startedSession(t), "host-conn"},
		{"no current question", exhausted, "ada-conn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.s.EvaluateGuess(tt.connID, "Paris", 10); !errors.Is(err, ErrInvalidGuessContext) {
				t.Errorf("expected ErrInvalidGuessContext, got %v", err)
			}
		})
	}
}

func TestEvaluateGuessAfterTimeout(t *testing.T) {
	s := startedSession(t)
	s.CloseRoundOnTimeout()

	if _, err := s.EvaluateGuess("ada-conn", "Paris", 10); !errors.Is(err, ErrInvalidGuessContext) {
		t.Fatalf("expected ErrInvalidGuessContext, got %v", err)
	}
	if got := s.PlayerByConn("ada-conn").AttemptsLeft; got != 0 {
		t.Errorf("attempts left = %d, want 0", got)
	}
}

func TestEvaluateGuessInheritedHost(t *testing.T) {
	s := startedSession(t)

	// The host role moves to Ada mid-game; she keeps playing. The creator
	// stays out of scoring.
	s.MarkDisconnected("host-conn")
	if ada := s.PlayerByConn("ada-conn"); ada.Role != models.RoleHost {
		t.Fatalf("expected Ada to hold the host role, got %s", ada.Role)
	}

	if _, err := s.EvaluateGuess("host-conn", "Paris", 10); !errors.Is(err, ErrInvalidGuessContext) {
		t.Fatalf("expected ErrInvalidGuessContext for the creator, got %v", err)
	}

	outcome, err := s.EvaluateGuess("ada-conn", "Paris", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Correct || s.PlayerByConn("ada-conn").Score != 10 {
		t.Errorf("inherited host guess should score, got %+v", outcome)
	}
}
