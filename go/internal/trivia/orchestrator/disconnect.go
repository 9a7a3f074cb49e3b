package orchestrator

import (
	"fmt"

	"github.com/mcdev12/trivia/go/internal/models"
	"github.com/mcdev12/trivia/go/internal/trivia/events"
	"github.com/rs/zerolog/log"
)

// HandleDisconnect reacts to a lost connection in every session it belonged
// to. The player record is kept, the host role moves to the first connected
// player, and a session with nobody left is abandoned without a snapshot.
func (o *Orchestrator) HandleDisconnect(connID string) {
	for _, s := range o.registry.SessionsFor(connID) {
		s.Lock()
		if s.Closed() {
			s.Unlock()
			continue
		}

		found, newHost := s.MarkDisconnected(connID)
		if !found {
			s.Unlock()
			continue
		}
		o.registry.Untrack(connID, s.ID)

		if s.ConnectedCount() == 0 {
			state := s.State
			o.registry.Remove(s)
			o.broadcaster.CloseRoom(s.ID)
			s.Unlock()

			log.Info().
				Str("session_id", s.ID).
				Str("state", string(state)).
				Msg("last player left, session abandoned")
			continue
		}

		if player := s.PlayerByConn(connID); player != nil {
			o.broadcastSystem(s.ID, fmt.Sprintf("%s left the session.", player.Name))
		}
		if newHost != nil {
			o.broadcaster.SendTo(newHost.ID, events.RoleAssigned, events.RoleAssignedPayload{Role: models.RoleHost})
			o.broadcastSystem(s.ID, fmt.Sprintf("%s is now the host.", newHost.Name))

			log.Info().
				Str("session_id", s.ID).
				Str("new_host", newHost.Name).
				Msg("host role reassigned")
		}
		s.Unlock()
	}
}
