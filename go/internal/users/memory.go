package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/trivia/go/internal/models"
)

// MemoryRepository keeps users in process memory. Used for local runs and
// tests when no database is configured.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]*models.User),
	}
}

func (r *MemoryRepository) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[req.Name]; exists {
		return nil, ErrUserExists
	}
	user := &models.User{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	r.users[req.Name] = user

	out := *user
	return &out, nil
}

func (r *MemoryRepository) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[name]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *user
	return &out, nil
}
