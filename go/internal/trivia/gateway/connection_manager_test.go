package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// echoHandler puts every sender into one room and echoes events to it
type echoHandler struct {
	cm          *ConnectionManager
	disconnects chan string
}

func (h *echoHandler) HandleClientEvent(ctx context.Context, connID, eventType string, payload []byte) error {
	h.cm.JoinRoom(connID, "lobby")
	h.cm.Broadcast("lobby", "echo", map[string]string{"from": connID, "event": eventType})
	h.cm.SendTo(connID, "ack", map[string]string{"event": eventType})
	return nil
}

func (h *echoHandler) HandleDisconnect(connID string) {
	h.disconnects <- connID
}

// newManager serves a manager over httptest without running its broadcast
// loop; call the returned start func to begin delivery.
func newManager(t *testing.T) (*ConnectionManager, *echoHandler, string, func()) {
	t.Helper()
	cm := NewConnectionManager(DefaultConnectionConfig())
	handler := &echoHandler{cm: cm, disconnects: make(chan string, 4)}
	cm.SetEventHandler(handler)

	ctx, cancel := context.WithCancel(context.Background())

	mux := http.NewServeMux()
	NewWebSocketHandler(cm).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	start := func() { go cm.Start(ctx) }
	return cm, handler, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", start
}

func startManager(t *testing.T) (*ConnectionManager, *echoHandler, string) {
	t.Helper()
	cm, handler, url, start := newManager(t)
	start()
	return cm, handler, url
}

// connectionIDs waits for n registered connections and returns their ids
func connectionIDs(t *testing.T, cm *ConnectionManager, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cm.mu.RLock()
		ids := make([]string, 0, len(cm.connections))
		for id := range cm.connections {
			ids = append(ids, id)
		}
		cm.mu.RUnlock()
		if len(ids) >= n {
			return ids
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d connections", n)
	return nil
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) OutboundEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out OutboundEvent
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read: %v", err)
	}
	return out
}

func send(t *testing.T, conn *websocket.Conn, event string) {
	t.Helper()
	if err := conn.WriteJSON(InboundEvent{Event: event, Data: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRoomBroadcastAndDirectSend(t *testing.T) {
	_, _, url := startManager(t)
	first := dial(t, url)
	second := dial(t, url)

	send(t, first, "hello")
	if got := readEvent(t, first); got.Event != "echo" {
		t.Fatalf("expected echo first, got %s", got.Event)
	}
	if got := readEvent(t, first); got.Event != "ack" {
		t.Fatalf("expected ack, got %s", got.Event)
	}

	send(t, second, "hi")
	echo := readEvent(t, first)
	if echo.Event != "echo" || echo.ID == "" || echo.Timestamp.IsZero() {
		t.Fatalf("unexpected envelope %+v", echo)
	}
	data := echo.Data.(map[string]any)
	if data["event"] != "hi" {
		t.Errorf("first connection should see second's event, got %v", data)
	}

	// Direct sends only reach their target
	if got := readEvent(t, second); got.Event != "echo" {
		t.Fatalf("expected echo, got %s", got.Event)
	}
	if got := readEvent(t, second); got.Event != "ack" {
		t.Fatalf("expected ack, got %s", got.Event)
	}
}

func TestMalformedFramesDropped(t *testing.T) {
	_, _, url := startManager(t)
	conn := dial(t, url)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"data":{}}`)); err != nil {
		t.Fatal(err)
	}
	send(t, conn, "ping")

	// The first reply belongs to the valid frame
	got := readEvent(t, conn)
	if data := got.Data.(map[string]any); data["event"] != "ping" {
		t.Errorf("unexpected first reply %+v", got)
	}
}

func TestDisconnectNotifiesHandlerOnce(t *testing.T) {
	cm, handler, url := startManager(t)
	conn := dial(t, url)

	send(t, conn, "hello")
	readEvent(t, conn)
	conn.Close()

	select {
	case <-handler.disconnects:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect was not reported")
	}
	select {
	case id := <-handler.disconnects:
		t.Fatalf("disconnect reported twice for %s", id)
	case <-time.After(50 * time.Millisecond):
	}

	stats := cm.GetConnectionStats()
	if stats["total_connections"] != 0 || stats["active_rooms"] != 0 {
		t.Errorf("connection state not cleaned up: %v", stats)
	}
}

func TestCloseRoomAfterPendingMessages(t *testing.T) {
	cm, _, url := startManager(t)
	conn := dial(t, url)

	send(t, conn, "hello")
	readEvent(t, conn)
	readEvent(t, conn)

	cm.Broadcast("lobby", "final", nil)
	cm.CloseRoom("lobby")
	cm.Broadcast("lobby", "after-close", nil)
	cm.SendTo("unknown", "nobody", nil)

	if got := readEvent(t, conn); got.Event != "final" {
		t.Fatalf("expected final, got %s", got.Event)
	}

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var extra OutboundEvent
	if err := conn.ReadJSON(&extra); err == nil {
		t.Fatalf("received %s after room closed", extra.Event)
	}
}

func TestRoomReusedAfterClose(t *testing.T) {
	cm, _, url, start := newManager(t)
	conn := dial(t, url)
	id := connectionIDs(t, cm, 1)[0]

	// A finished session closes its room and a new one reuses the id before
	// the loop catches up
	cm.CloseRoom("abc")
	cm.JoinRoom(id, "abc")
	cm.Broadcast("abc", "session:created", map[string]string{"text": "new session"})
	start()

	got := readEvent(t, conn)
	if got.Event != "session:created" {
		t.Fatalf("expected session:created, got %s", got.Event)
	}

	stats := cm.GetConnectionStats()
	rooms := stats["room_connections"].(map[string]int)
	if rooms["abc"] != 1 {
		t.Errorf("new member should remain in the reused room, got %v", rooms)
	}
}

func TestCloseRoomThenJoinKeepsOldMembersOut(t *testing.T) {
	cm, _, url, start := newManager(t)
	oldConn := dial(t, url)
	ids := connectionIDs(t, cm, 1)
	oldID := ids[0]
	newConn := dial(t, url)
	var newID string
	for _, id := range connectionIDs(t, cm, 2) {
		if id != oldID {
			newID = id
		}
	}

	cm.JoinRoom(oldID, "abc")
	cm.Broadcast("abc", "game:ended", nil)
	cm.CloseRoom("abc")
	cm.JoinRoom(newID, "abc")
	cm.Broadcast("abc", "session:created", nil)
	start()

	if got := readEvent(t, oldConn); got.Event != "game:ended" {
		t.Fatalf("old member expected game:ended, got %s", got.Event)
	}
	if got := readEvent(t, newConn); got.Event != "session:created" {
		t.Fatalf("new member expected session:created, got %s", got.Event)
	}

	oldConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var extra OutboundEvent
	if err := oldConn.ReadJSON(&extra); err == nil {
		t.Fatalf("old member received %s from the reused room", extra.Event)
	}
}
