package orchestrator

import (
	"context"

	"github.com/mcdev12/trivia/go/internal/models"
	"github.com/mcdev12/trivia/go/internal/trivia"
	"github.com/mcdev12/trivia/go/internal/trivia/events"
	"github.com/rs/zerolog/log"
)

// settle ends a session whose questions are exhausted: it declares the
// overall winner, hands the snapshot to the store and removes the session.
// The caller must hold the session lock.
func (o *Orchestrator) settle(s *trivia.Session) {
	players := s.PlayersView()

	var winnerName *string
	if winner := trivia.ResolveOverallWinner(players); winner != nil {
		name := winner.Name
		winnerName = &name
	}

	end := o.clock.Now()
	s.State = models.SessionStateEnded
	s.EndTime = end

	o.broadcaster.Broadcast(s.ID, events.GameEnded, events.GameEndedPayload{
		Players: players,
		Winner:  winnerName,
	})

	snapshot := s.Snapshot(winnerName, end)
	go o.persistSnapshot(snapshot)

	o.registry.Remove(s)
	o.broadcaster.CloseRoom(s.ID)

	logEvent := log.Info().
		Str("session_id", s.ID).
		Int("players", len(players)).
		Dur("duration", end.Sub(snapshot.StartTime))
	if winnerName != nil {
		logEvent = logEvent.Str("winner", *winnerName)
	}
	logEvent.Msg("session settled")
}

// persistSnapshot writes the settlement record. Failures are logged and
// swallowed; the session is already gone either way.
func (o *Orchestrator) persistSnapshot(snapshot models.SessionSnapshot) {
	if o.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.config.CollaboratorTimeout)
	defer cancel()

	if err := o.snapshots.Save(ctx, snapshot); err != nil {
		log.Error().
			Err(err).
			Str("session_id", snapshot.ID).
			Msg("failed to save session snapshot")
		return
	}
	log.Debug().Str("session_id", snapshot.ID).Msg("session snapshot saved")
}
