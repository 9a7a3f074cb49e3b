package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/trivia/go/internal/snapshots"
	"github.com/mcdev12/trivia/go/internal/users"
	"github.com/rs/zerolog/log"
)

// setupUserStore builds the identity store selected by USER_STORE
// (memory|postgres). The returned closer releases its connections.
func setupUserStore(ctx context.Context, kind string) (*users.App, func(), error) {
	switch kind {
	case "", "memory":
		return users.NewApp(users.NewMemoryRepository()), func() {}, nil
	case "postgres":
		dbCfg := databaseConfigFromEnv()
		pool, err := pgxpool.New(ctx, dbCfg.dsn())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Info().
			Str("database", dbCfg.Database).
			Str("host", dbCfg.Host).
			Msg("user store connected to postgres")
		return users.NewApp(users.NewRepository(pool)), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown USER_STORE %q", kind)
	}
}

// snapshotStores is the configured snapshot fan-out plus the store that
// serves reads. Redis answers reads when enabled, otherwise memory does.
type snapshotStores struct {
	fanout  snapshots.Fanout
	reader  snapshots.Reader
	closers []io.Closer
}

func (s *snapshotStores) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close snapshot store")
		}
	}
}

// setupSnapshotStore builds the snapshot fan-out from the comma separated
// SNAPSHOT_STORE list (memory, postgres, redis, nats).
func setupSnapshotStore(kinds string) (*snapshotStores, error) {
	stores := &snapshotStores{}
	var memory *snapshots.MemoryStore
	fail := func(err error) (*snapshotStores, error) {
		stores.Close()
		return nil, err
	}

	for _, kind := range strings.Split(kinds, ",") {
		kind = strings.TrimSpace(kind)
		switch kind {
		case "":
			continue
		case "memory":
			memory = snapshots.NewMemoryStore()
			stores.fanout = append(stores.fanout, memory)
		case "postgres":
			store, err := snapshots.OpenPostgresStore(databaseConfigFromEnv().dsn())
			if err != nil {
				return fail(err)
			}
			stores.fanout = append(stores.fanout, store)
			stores.closers = append(stores.closers, store)
		case "redis":
			store, err := snapshots.NewRedisStore(snapshots.RedisOptions{
				Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvAsInt("REDIS_DB", 0),
				TTL:      time.Duration(getEnvAsInt("REDIS_SNAPSHOT_TTL_HOURS", 24)) * time.Hour,
			})
			if err != nil {
				return fail(err)
			}
			stores.fanout = append(stores.fanout, store)
			stores.closers = append(stores.closers, store)
			stores.reader = store
		case "nats":
			cfg := snapshots.DefaultJetStreamConfig()
			cfg.URL = getEnv("NATS_URL", cfg.URL)
			publisher, err := snapshots.NewJetStreamPublisher(cfg)
			if err != nil {
				return fail(err)
			}
			stores.fanout = append(stores.fanout, publisher)
			stores.closers = append(stores.closers, publisher)
		default:
			return fail(fmt.Errorf("unknown SNAPSHOT_STORE entry %q", kind))
		}
		log.Info().Str("store", kind).Msg("snapshot store enabled")
	}

	if stores.reader == nil && memory != nil {
		stores.reader = memory
	}
	return stores, nil
}
