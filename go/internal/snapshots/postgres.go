package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/mcdev12/trivia/go/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"
)

// queries binds the snapshot statements to a single transaction
type queries struct {
	tx *sql.Tx
}

// nullWinner stores a tied or winnerless game as NULL
func nullWinner(winner *string) sql.NullString {
	if winner == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *winner, Valid: true}
}

// nullStart stores a session that never started as NULL
func nullStart(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func (q *queries) insertSnapshot(ctx context.Context, id uuid.UUID, s models.SessionSnapshot, players, questions pqtype.NullRawMessage) error {
	_, err := q.tx.ExecContext(ctx, `
		INSERT INTO session_snapshots (id, session_id, winner, players, questions, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, s.ID, nullWinner(s.Winner), players, questions, nullStart(s.StartTime), s.EndTime,
	)
	return err
}

func (q *queries) insertScore(ctx context.Context, snapshotID uuid.UUID, position int, p models.Player) error {
	_, err := q.tx.ExecContext(ctx, `
		INSERT INTO snapshot_scores (snapshot_id, position, player_name, role, score, guessed_correctly)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		snapshotID, position, p.Name, string(p.Role), p.Score, p.GuessedCorrectly,
	)
	return err
}

// PostgresStore writes snapshots to Postgres. Each save stores the full
// record plus one score row per player in a single transaction.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgresStore opens a lib/pq connection pool for dsn
func OpenPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Save(ctx context.Context, snapshot models.SessionSnapshot) error {
	players, err := rawJSON(snapshot.Players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}
	questions, err := rawJSON(snapshot.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	id := uuid.New()
	err = p.inTx(ctx, func(q *queries) error {
		if err := q.insertSnapshot(ctx, id, snapshot, players, questions); err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
		for i, player := range snapshot.Players {
			if err := q.insertScore(ctx, id, i, player); err != nil {
				return fmt.Errorf("failed to insert score for %s: %w", player.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug().
		Str("snapshot_id", id.String()).
		Str("session_id", snapshot.ID).
		Msg("snapshot stored in postgres")
	return nil
}

// inTx runs fn with the snapshot statements bound to one transaction. The
// transaction commits when fn succeeds and rolls back otherwise.
func (p *PostgresStore) inTx(ctx context.Context, fn func(q *queries) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&queries{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("failed to roll back snapshot transaction")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func rawJSON(v any) (pqtype.NullRawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: len(data) > 0}, nil
}
