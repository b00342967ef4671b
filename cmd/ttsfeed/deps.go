// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package main

import (
	"context"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/ttsfeed/ttsfeed/internal/auth/postgres"
	authredis "github.com/ttsfeed/ttsfeed/internal/auth/redis"
	"github.com/ttsfeed/ttsfeed/internal/store"
)

// Pool is the postgres pool as the commands use it.
// *pgxpool.Pool and pgxmock.PgxPoolIface both satisfy it.
type Pool interface {
	postgres.Pool
	Close()
}

// Migrator is the schema migrator driven by the migrate command.
type Migrator interface {
	Up() error
	Down() error
	Status() (store.Status, error)
	Force(version int) error
	Close() error
}

// Deps contains injectable dependencies shared by the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// PoolFactory opens the postgres pool.
	// Default: store.Open
	PoolFactory func(ctx context.Context, dsn string, opts store.PoolOptions) (Pool, error)

	// RedisFactory connects and pings the redis client.
	// Default: authredis.Connect
	RedisFactory func(ctx context.Context, url string) (goredis.UniversalClient, error)

	// MigratorFactory creates a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// Getenv reads secrets and connection strings.
	// Default: os.Getenv
	Getenv func(string) string

	// Backoff paces the startup connection attempts.
	// Default: exponential from 250ms, capped at 5s, 8 retries
	Backoff func() retry.Backoff

	// OnReady is called once both servers are listening. Tests use it.
	OnReady func(webAddr, metricsAddr string)
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.PoolFactory == nil {
		out.PoolFactory = func(ctx context.Context, dsn string, opts store.PoolOptions) (Pool, error) {
			pool, err := store.Open(ctx, dsn, opts)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if out.RedisFactory == nil {
		out.RedisFactory = func(ctx context.Context, url string) (goredis.UniversalClient, error) {
			client, err := authredis.Connect(ctx, url)
			if err != nil {
				return nil, err
			}
			return client, nil
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			m, err := store.NewMigrator(databaseURL)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.Getenv == nil {
		out.Getenv = os.Getenv
	}
	if out.Backoff == nil {
		out.Backoff = func() retry.Backoff {
			b := retry.NewExponential(250 * time.Millisecond)
			b = retry.WithCappedDuration(5*time.Second, b)
			return retry.WithMaxRetries(8, b)
		}
	}
	if out.OnReady == nil {
		out.OnReady = func(string, string) {}
	}
	return &out
}
