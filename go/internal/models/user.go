package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a known player identity
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
