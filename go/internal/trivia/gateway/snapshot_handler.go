package gateway

import (
	"errors"
	"net/http"

	"github.com/mcdev12/trivia/go/internal/snapshots"
	"github.com/rs/zerolog/log"
)

// SnapshotHandler serves settlement records of finished sessions
type SnapshotHandler struct {
	reader snapshots.Reader
}

func NewSnapshotHandler(reader snapshots.Reader) *SnapshotHandler {
	return &SnapshotHandler{reader: reader}
}

// HandleGetSnapshot handles GET /api/snapshots/{id}
func (h *SnapshotHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Session ID is required", http.StatusBadRequest)
		return
	}

	snapshot, err := h.reader.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, snapshots.ErrSnapshotNotFound) {
			http.Error(w, "Snapshot not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("session_id", id).Msg("failed to load snapshot")
		http.Error(w, "Failed to load snapshot", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *SnapshotHandler) RegisterSnapshotRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/snapshots/{id}", h.HandleGetSnapshot)
}
