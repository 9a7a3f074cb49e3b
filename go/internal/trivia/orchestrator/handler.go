package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/trivia/go/internal/trivia"
	"github.com/mcdev12/trivia/go/internal/trivia/events"
	"github.com/rs/zerolog/log"
)

// HandleClientEvent routes an inbound protocol event from connID to its
// handler. Recoverable errors are reported to the sender as a system message
// and returned for logging.
func (o *Orchestrator) HandleClientEvent(ctx context.Context, connID, eventType string, payload []byte) error {
	log.Debug().
		Str("event_type", eventType).
		Str("connection_id", connID).
		Msg("handling client event")

	err := o.route(ctx, connID, eventType, payload)
	if err != nil {
		if text := o.systemMessageFor(err); text != "" {
			o.broadcaster.SendTo(connID, events.MessageNew, o.systemMessage(text))
		}
	}
	return err
}

func (o *Orchestrator) route(ctx context.Context, connID, eventType string, payload []byte) error {
	switch eventType {
	case events.CreateSession:
		var req events.CreateSessionPayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		return o.CreateSession(ctx, connID, req)

	case events.JoinSession:
		var req events.JoinSessionPayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		return o.JoinSession(ctx, connID, req)

	case events.AddQuestions:
		var req events.AddQuestionsPayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		return o.AddQuestions(ctx, connID, req)

	case events.StartGame:
		var req events.StartGamePayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		return o.StartGame(ctx, connID, req)

	case events.SubmitGuess:
		var req events.SubmitGuessPayload
		if err := decode(payload, &req); err != nil {
			return trivia.ErrInvalidGuessContext
		}
		return o.SubmitGuess(ctx, connID, req)

	case events.ChatSend:
		var req events.ChatSendPayload
		if err := decode(payload, &req); err != nil {
			return err
		}
		return o.SendChat(ctx, connID, req)

	default:
		log.Warn().
			Str("event_type", eventType).
			Str("connection_id", connID).
			Msg("unknown event type - ignoring")
		return nil
	}
}

func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", trivia.ErrInvalidRequest, err)
	}
	return nil
}

// systemMessageFor maps an error to the notice shown to the offending
// connection. Guess context errors are silent.
func (o *Orchestrator) systemMessageFor(err error) string {
	switch {
	case errors.Is(err, trivia.ErrInvalidGuessContext):
		return ""
	case errors.Is(err, trivia.ErrSessionNotFound):
		return "Session not found."
	case errors.Is(err, trivia.ErrSessionInProgress):
		return "Game already in progress."
	case errors.Is(err, trivia.ErrDuplicateSession):
		return "Session ID already in use."
	case errors.Is(err, trivia.ErrNotAuthorized):
		return "Only the host can do that."
	case errors.Is(err, trivia.ErrNotInSession):
		return "You are not in this session."
	case errors.Is(err, trivia.ErrInsufficientPlayers):
		return fmt.Sprintf("Need at least %d players to start.", o.config.MinPlayers)
	case errors.Is(err, trivia.ErrNoQuestions):
		return "Add at least one question before starting."
	case errors.Is(err, trivia.ErrInvalidRequest):
		return "Invalid request."
	default:
		return ""
	}
}
