package orchestrator

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/trivia/go/internal/trivia"
	"github.com/mcdev12/trivia/go/internal/trivia/events"
	"github.com/rs/zerolog/log"
)

const timeoutMessage = "Time out! No winner this round."

// roundTimer is a cancellable one-shot timer owned by a session.
type roundTimer struct {
	timer clockwork.Timer
	stop  chan struct{}
	once  sync.Once
}

// Cancel stops the timer. Safe to call more than once.
func (t *roundTimer) Cancel() {
	t.once.Do(func() {
		stopAndDrainTimer(t.timer)
		close(t.stop)
	})
}

// stopAndDrainTimer safely stops a timer and drains its channel to prevent goroutine leaks.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

// startRound opens the question at the current index, or settles the session
// when every question has been played. The caller must hold the session lock.
func (o *Orchestrator) startRound(s *trivia.Session) {
	if s.Closed() {
		return
	}
	if s.Exhausted() {
		o.settle(s)
		return
	}

	s.BeginRound(o.config.MaxAttempts)
	question, _ := s.CurrentQuestion()

	seconds := question.DurationSeconds
	if seconds <= 0 {
		seconds = o.config.Durations.DefaultSeconds
	}

	o.broadcaster.Broadcast(s.ID, events.GameQuestion, events.GameQuestionPayload{
		Question:       question.Text,
		QuestionIndex:  s.CurrentQuestionIndex + 1,
		TotalQuestions: len(s.Questions),
		Duration:       seconds,
		Players:        s.PlayersView(),
	})

	o.armCountdown(s, time.Duration(seconds)*time.Second)

	log.Info().
		Str("session_id", s.ID).
		Int("question_index", s.CurrentQuestionIndex+1).
		Int("total_questions", len(s.Questions)).
		Int("duration_sec", seconds).
		Msg("round started")
}

// armCountdown installs the round countdown as the session's active timer,
// replacing any previous one. On expiry it performs timeout resolution unless
// a correct guess got there first.
func (o *Orchestrator) armCountdown(s *trivia.Session, d time.Duration) {
	rt := &roundTimer{
		timer: o.clock.NewTimer(d),
		stop:  make(chan struct{}),
	}
	s.SetActiveTimer(rt)

	go func() {
		select {
		case <-rt.timer.Chan():
		case <-rt.stop:
			return
		case <-o.ctx.Done():
			rt.Cancel()
			return
		}

		s.Lock()
		defer s.Unlock()

		if s.Closed() || !s.IsActiveTimer(rt) {
			log.Debug().Str("session_id", s.ID).Msg("ignoring stale countdown")
			return
		}
		s.CancelTimer()
		o.resolveTimeout(s)
	}()

	log.Debug().
		Str("session_id", s.ID).
		Dur("duration", d).
		Msg("armed round countdown")
}

// resolveTimeout closes a round nobody answered. The caller must hold the
// session lock.
func (o *Orchestrator) resolveTimeout(s *trivia.Session) {
	question, _ := s.CurrentQuestion()

	o.broadcaster.Broadcast(s.ID, events.QuestionEnded, events.QuestionEndedPayload{
		Winner:  nil,
		Answer:  question.Answer,
		Players: s.PlayersView(),
		Message: timeoutMessage,
	})

	s.CloseRoundOnTimeout()
	s.Advance()

	log.Info().
		Str("session_id", s.ID).
		Int("next_index", s.CurrentQuestionIndex).
		Msg("round timed out")

	o.scheduleNextRound(s)
}

// resolveCorrect closes a round won by a correct guess. The caller must hold
// the session lock.
func (o *Orchestrator) resolveCorrect(s *trivia.Session, outcome trivia.GuessOutcome) {
	s.CancelTimer()

	winner := outcome.PlayerName
	o.broadcaster.Broadcast(s.ID, events.QuestionEnded, events.QuestionEndedPayload{
		Winner:  &winner,
		Answer:  outcome.Answer,
		Players: s.PlayersView(),
	})

	s.Advance()
	o.scheduleNextRound(s)
}

// scheduleNextRound waits the fixed settle pause and starts the next round.
// The pause cannot be cancelled; it becomes a no-op if the session is removed
// meanwhile.
func (o *Orchestrator) scheduleNextRound(s *trivia.Session) {
	timer := o.clock.NewTimer(o.config.SettlePause)

	go func() {
		select {
		case <-timer.Chan():
		case <-o.ctx.Done():
			stopAndDrainTimer(timer)
			return
		}

		s.Lock()
		defer s.Unlock()

		if s.Closed() {
			log.Debug().Str("session_id", s.ID).Msg("session gone before next round")
			return
		}
		o.startRound(s)
	}()
}
