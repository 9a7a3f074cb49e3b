package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/mcdev12/trivia/go/internal/models"
	"github.com/rs/zerolog/log"
)

// StateProvider exposes read-only views of live sessions
type StateProvider interface {
	Sessions() []models.SessionSummary
	Session(id string) (models.SessionSummary, bool)
}

// StateHandler handles HTTP requests for session state
type StateHandler struct {
	stateProvider StateProvider
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{
		stateProvider: provider,
	}
}

// HandleGetSessions handles GET /api/sessions
func (h *StateHandler) HandleGetSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stateProvider.Sessions())
}

// HandleGetSession handles GET /api/sessions/{id}
func (h *StateHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Session ID is required", http.StatusBadRequest)
		return
	}

	summary, ok := h.stateProvider.Session(id)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.HandleGetSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleGetSession)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
