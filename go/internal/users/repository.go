package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mcdev12/trivia/go/internal/models"
)

const uniqueViolation = "23505"

// DBTX is the subset of pgxpool.Pool the repository needs
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements user data access on Postgres
type Repository struct {
	db DBTX
}

// NewRepository creates a new users repository
func NewRepository(db DBTX) *Repository {
	return &Repository{
		db: db,
	}
}

// CreateUser creates a new user
func (r *Repository) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, name)
		VALUES ($1, $2)
		RETURNING id, name, created_at`,
		uuid.New(), req.Name,
	)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByName retrieves a user by display name
func (r *Repository) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM users
		WHERE name = $1`,
		name,
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by name: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}
