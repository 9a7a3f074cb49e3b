package users

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mcdev12/trivia/go/internal/models"
)

func TestFindOrCreateIsIdempotent(t *testing.T) {
	app := NewApp(NewMemoryRepository())
	ctx := context.Background()

	first, err := app.FindOrCreate(ctx, "Ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := app.FindOrCreate(ctx, "  Ada ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same user, got %s and %s", first.ID, second.ID)
	}

	other, err := app.FindOrCreate(ctx, "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if other.ID == first.ID {
		t.Error("different names should map to different users")
	}
}

func TestFindOrCreateValidation(t *testing.T) {
	app := NewApp(NewMemoryRepository())
	for _, name := range []string{"", "   "} {
		if _, err := app.FindOrCreate(context.Background(), name); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}
}

func TestFindOrCreateConcurrent(t *testing.T) {
	app := NewApp(NewMemoryRepository())

	const workers = 16
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := app.FindOrCreate(context.Background(), "Ada")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			ids <- u.ID.String()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected one user id, got %d", len(seen))
	}
}

// racingRepo reports a miss on the first lookup and a conflict on create,
// as if another caller inserted the row in between.
type racingRepo struct {
	lookups int
	winner  *models.User
}

func (r *racingRepo) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, ErrUserNotFound
	}
	return r.winner, nil
}

func (r *racingRepo) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	return nil, ErrUserExists
}

func TestFindOrCreateLostRace(t *testing.T) {
	repo := &racingRepo{winner: &models.User{Name: "Ada"}}
	app := NewApp(repo)

	got, err := app.FindOrCreate(context.Background(), "Ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != repo.winner || repo.lookups != 2 {
		t.Errorf("expected the concurrently created user after a second lookup")
	}
}

type brokenRepo struct{}

var errDown = errors.New("database down")

func (brokenRepo) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	return nil, errDown
}

func (brokenRepo) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	return nil, errDown
}

func TestFindOrCreateRepositoryError(t *testing.T) {
	app := NewApp(brokenRepo{})
	if _, err := app.FindOrCreate(context.Background(), "Ada"); !errors.Is(err, errDown) {
		t.Errorf("expected repository error, got %v", err)
	}
}
