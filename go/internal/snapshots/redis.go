package snapshots

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/trivia/go/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the redis snapshot cache
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // 0 = no expiration
}

// RedisStore keeps the latest snapshot per session id as JSON, expiring
// after TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redis and verifies the connection
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    opts.TTL,
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, snapshot models.SessionSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(snapshot.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// Get returns the latest snapshot stored for sessionID
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot models.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func snapshotKey(sessionID string) string {
	return fmt.Sprintf("trivia:snapshot:%s", sessionID)
}
