package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// EventHandler receives inbound client events and disconnect notifications
type EventHandler interface {
	HandleClientEvent(ctx context.Context, connID, eventType string, payload []byte) error
	HandleDisconnect(connID string)
}

// ConnectionManager manages WebSocket connections and room membership
type ConnectionManager struct {
	// Every live connection by ID, and room membership by room ID
	connections map[string]*Connection
	rooms       map[string]map[*Connection]bool
	mu          sync.RWMutex

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	// Connection configuration
	config ConnectionConfig

	// Outbound messages, processed in order by Start
	broadcastCh chan BroadcastMessage

	handler EventHandler
	ctx     context.Context
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	// Connection metadata
	ConnectedAt time.Time
	LastPing    time.Time

	rooms map[string]bool
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is an outbound event addressed to a room or a single
// connection, or a membership change. Joins and closes travel the same queue
// as events, so a room id reused after CloseRoom keeps its new members.
type BroadcastMessage struct {
	RoomID    string
	ConnID    string // Optional: if set, only send to this connection
	Event     *OutboundEvent
	Join      bool // Add ConnID to RoomID
	CloseRoom bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  16 * 1024, // question lists arrive in one frame
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		rooms:       make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000), // Buffer for high throughput
		ctx:         context.Background(),
	}
}

// SetEventHandler wires the handler inbound events are dispatched to
func (cm *ConnectionManager) SetEventHandler(h EventHandler) {
	cm.handler = h
}

// Start begins processing broadcast messages
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
		rooms:       make(map[string]bool),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

// registerConnection adds a connection to the manager
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn.ID] = conn

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

// unregisterConnection removes a connection from the manager. It reports
// whether this call did the removal, so the disconnect is announced once.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn.ID]; !exists {
		return false
	}
	delete(cm.connections, conn.ID)
	close(conn.Send)

	for roomID := range conn.rooms {
		if members, ok := cm.rooms[roomID]; ok {
			delete(members, conn)
			// Clean up empty room pools
			if len(members) == 0 {
				delete(cm.rooms, roomID)
			}
		}
	}

	log.Info().
		Str("connection_id", conn.ID).
		Int("rooms", len(conn.rooms)).
		Msg("connection unregistered")
	return true
}

// disconnect unregisters conn and notifies the event handler once
func (cm *ConnectionManager) disconnect(conn *Connection) {
	if !cm.unregisterConnection(conn) {
		return
	}
	if cm.handler != nil {
		cm.handler.HandleDisconnect(conn.ID)
	}
}

// JoinRoom adds a connection to a room's broadcast scope. It takes effect
// after every message queued before it.
func (cm *ConnectionManager) JoinRoom(connID, roomID string) {
	cm.enqueue(BroadcastMessage{RoomID: roomID, ConnID: connID, Join: true})
}

func (cm *ConnectionManager) joinRoom(connID, roomID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conn, ok := cm.connections[connID]
	if !ok {
		log.Debug().Str("connection_id", connID).Str("room_id", roomID).Msg("join for unknown connection")
		return
	}
	if cm.rooms[roomID] == nil {
		cm.rooms[roomID] = make(map[*Connection]bool)
	}
	cm.rooms[roomID][conn] = true
	conn.rooms[roomID] = true
}

// Broadcast sends an event to every connection in a room
func (cm *ConnectionManager) Broadcast(roomID, event string, payload any) {
	cm.enqueue(BroadcastMessage{RoomID: roomID, Event: newOutboundEvent(event, payload)})
}

// SendTo sends an event to a single connection
func (cm *ConnectionManager) SendTo(connID, event string, payload any) {
	cm.enqueue(BroadcastMessage{ConnID: connID, Event: newOutboundEvent(event, payload)})
}

// CloseRoom drops a room's membership after pending messages are delivered
func (cm *ConnectionManager) CloseRoom(roomID string) {
	cm.enqueue(BroadcastMessage{RoomID: roomID, CloseRoom: true})
}

func (cm *ConnectionManager) enqueue(message BroadcastMessage) {
	select {
	case cm.broadcastCh <- message:
	default:
		log.Warn().
			Str("room_id", message.RoomID).
			Str("connection_id", message.ConnID).
			Msg("broadcast channel full, dropping message")
	}
}

func newOutboundEvent(event string, payload any) *OutboundEvent {
	return &OutboundEvent{
		ID:        uuid.New().String(),
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}
}

// handleBroadcast processes a broadcast message
func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	switch {
	case message.Join:
		cm.joinRoom(message.ConnID, message.RoomID)
		return
	case message.CloseRoom:
		cm.closeRoom(message.RoomID)
		return
	}

	// Create a snapshot of targets to avoid holding lock during broadcast
	var targetConnections []*Connection
	cm.mu.RLock()
	if message.ConnID != "" {
		if conn, ok := cm.connections[message.ConnID]; ok {
			targetConnections = append(targetConnections, conn)
		}
	} else {
		for conn := range cm.rooms[message.RoomID] {
			targetConnections = append(targetConnections, conn)
		}
	}
	cm.mu.RUnlock()

	if len(targetConnections) == 0 {
		return
	}

	// Marshal the event once
	eventData, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Str("event", message.Event.Event).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targetConnections {
		cm.deliver(conn, eventData)
	}

	log.Debug().
		Str("event", message.Event.Event).
		Str("room_id", message.RoomID).
		Str("connection_id", message.ConnID).
		Int("connections", len(targetConnections)).
		Msg("event broadcasted")
}

// deliver queues data on a connection's send buffer. The read lock keeps the
// channel from being closed underneath the send.
func (cm *ConnectionManager) deliver(conn *Connection, data []byte) {
	cm.mu.RLock()
	if _, live := cm.connections[conn.ID]; !live {
		cm.mu.RUnlock()
		return
	}
	select {
	case conn.Send <- data:
		cm.mu.RUnlock()
	default:
		cm.mu.RUnlock()
		// Connection is slow/dead, close it
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("connection send buffer full, closing connection")
		conn.Conn.Close()
		go cm.disconnect(conn)
	}
}

func (cm *ConnectionManager) closeRoom(roomID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for conn := range cm.rooms[roomID] {
		delete(conn.rooms, roomID)
	}
	delete(cm.rooms, roomID)

	log.Debug().Str("room_id", roomID).Msg("room closed")
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	roomCounts := make(map[string]int)
	for roomID, members := range cm.rooms {
		roomCounts[roomID] = len(members)
	}

	return map[string]interface{}{
		"total_connections": len(cm.connections),
		"active_rooms":      len(cm.rooms),
		"room_connections":  roomCounts,
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection. It is the
// only reader, so each connection's events are handled in arrival order.
func (c *Connection) readPump() {
	defer func() {
		c.Conn.Close()
		c.Manager.disconnect(c)
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage decodes a client frame and dispatches it
func (c *Connection) handleClientMessage(message []byte) {
	var in InboundEvent
	if err := json.Unmarshal(message, &in); err != nil || in.Event == "" {
		log.Debug().
			Str("connection_id", c.ID).
			Msg("dropping malformed client message")
		return
	}

	if c.Manager.handler == nil {
		return
	}
	if err := c.Manager.handler.HandleClientEvent(c.Manager.ctx, c.ID, in.Event, in.Data); err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Str("event", in.Event).
			Msg("client event rejected")
	}
}
