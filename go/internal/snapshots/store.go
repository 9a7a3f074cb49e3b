package snapshots

import (
	"context"
	"errors"

	"github.com/mcdev12/trivia/go/internal/models"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a session id
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store persists settlement records of finished sessions
type Store interface {
	Save(ctx context.Context, snapshot models.SessionSnapshot) error
}

// Reader looks up the latest settlement record of a session
type Reader interface {
	Get(ctx context.Context, sessionID string) (*models.SessionSnapshot, error)
}

// Fanout writes each snapshot to every configured store. A failing store
// does not stop the others; all failures are reported together.
type Fanout []Store

func (f Fanout) Save(ctx context.Context, snapshot models.SessionSnapshot) error {
	var errs []error
	for _, s := range f {
		if err := s.Save(ctx, snapshot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
