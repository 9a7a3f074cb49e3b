package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mcdev12/trivia/go/internal/models"
	"github.com/rs/zerolog/log"
)

// UsersRepository defines what the app layer needs from the repository
type UsersRepository interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)
}

// App handles users business logic
type App struct {
	repo UsersRepository
}

// NewApp creates a new users App
func NewApp(repo UsersRepository) *App {
	return &App{
		repo: repo,
	}
}

// FindOrCreate returns the user with the given name, creating it on first
// sight. Calling it twice with the same name yields the same user.
func (a *App) FindOrCreate(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("validation failed: name is required")
	}

	user, err := a.repo.GetUserByName(ctx, name)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user, err = a.repo.CreateUser(ctx, CreateUserRequest{Name: name})
	if errors.Is(err, ErrUserExists) {
		// Lost a race with another connection using the same name
		return a.repo.GetUserByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Str("name", user.Name).Msg("created user")
	return user, nil
}
