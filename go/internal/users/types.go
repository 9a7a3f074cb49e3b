package users

import "errors"

var (
	// ErrUserNotFound is returned when no user has the requested name
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a concurrent create won the race
	ErrUserExists = errors.New("user already exists")
)

// CreateUserRequest represents the data needed to create a new user
type CreateUserRequest struct {
	Name string `json:"name"`
}
