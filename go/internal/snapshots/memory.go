package snapshots

import (
	"context"
	"sync"

	"github.com/mcdev12/trivia/go/internal/models"
)

// MemoryStore keeps snapshots in process memory, newest last
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots []models.SessionSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(ctx context.Context, snapshot models.SessionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snapshot)
	return nil
}

// Get returns the most recent snapshot saved for sessionID. Session ids
// may be reused once a session ends, so earlier records are kept.
func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		if m.snapshots[i].ID == sessionID {
			snapshot := m.snapshots[i]
			return &snapshot, nil
		}
	}
	return nil, ErrSnapshotNotFound
}
