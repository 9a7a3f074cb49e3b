package gateway

import (
	"encoding/json"
	"time"
)

// InboundEvent is the envelope every client frame arrives in
type InboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutboundEvent is the envelope every server frame is sent in
type OutboundEvent struct {
	ID        string    `json:"id"`        // Event UUID
	Event     string    `json:"event"`     // Event name
	Timestamp time.Time `json:"timestamp"` // Event creation time
	Data      any       `json:"data"`      // Event-specific payload
}
