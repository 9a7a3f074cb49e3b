package gateway

import (
	"context"
	"net/http"

	"github.com/mcdev12/trivia/go/internal/snapshots"
	"github.com/rs/zerolog/log"
)

// Service is the game gateway: it owns WebSocket connections, broadcasts
// outbound events and serves read-only session state.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	snapshotHandler   *SnapshotHandler
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates a new gateway service. The event handler and state
// provider are attached with Attach once the orchestrator exists.
func NewService(config Config) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager),
	}
}

// Broadcaster returns the transport the orchestrator sends through
func (s *Service) Broadcaster() *ConnectionManager {
	return s.connectionManager
}

// Attach wires inbound events and state queries to the orchestrator
func (s *Service) Attach(handler EventHandler, provider StateProvider) {
	s.connectionManager.SetEventHandler(handler)
	s.stateHandler = NewStateHandler(provider)
}

// AttachSnapshots exposes finished session records over HTTP
func (s *Service) AttachSnapshots(reader snapshots.Reader) {
	s.snapshotHandler = NewSnapshotHandler(reader)
}

// Start runs the broadcast loop until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting game gateway service")
	s.connectionManager.Start(ctx)
	log.Info().Msg("game gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and state HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	if s.stateHandler != nil {
		s.stateHandler.RegisterStateRoutes(mux)
	}
	if s.snapshotHandler != nil {
		s.snapshotHandler.RegisterSnapshotRoutes(mux)
	}
	mux.HandleFunc("GET /info", s.handleInfo)
	log.Info().Msg("game gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "trivia_gateway"
	stats["status"] = "running"
	return stats
}

func (s *Service) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.GetStats())
}
