// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/ttsfeed/ttsfeed/internal/access"
	"github.com/ttsfeed/ttsfeed/internal/auth"
	"github.com/ttsfeed/ttsfeed/internal/auth/postgres"
	authredis "github.com/ttsfeed/ttsfeed/internal/auth/redis"
	"github.com/ttsfeed/ttsfeed/internal/config"
	"github.com/ttsfeed/ttsfeed/internal/observability"
	"github.com/ttsfeed/ttsfeed/internal/store"
	"github.com/ttsfeed/ttsfeed/internal/web"
	"github.com/ttsfeed/ttsfeed/pkg/errutil"
)

// sessionBackend is a session store that can report its own health.
type sessionBackend interface {
	auth.SessionStore
	Ping(ctx context.Context) error
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return newServeCmd(nil)
}

func newServeCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the web server. It connects to PostgreSQL and, for the redis
session backend, to Redis, then serves the application and the
metrics/health endpoints until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, deps)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func storeDown(what string, err error) error {
	code := auth.CodeDirectoryDown
	if what == "redis" {
		code = auth.CodeStoreUnavailable
	}
	return oops.Code(code).With("dependency", what).Wrap(err)
}

// runServeWithDeps runs the server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd, deps.Getenv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate configuration").Wrap(err)
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	logger.Info("starting ttsfeed",
		"version", version,
		"http_addr", cfg.HTTP.Addr,
		"session_backend", cfg.Session.Backend,
		"hasher", cfg.Auth.Hasher,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := deps.PoolFactory(ctx, cfg.Secrets.DatabaseURL, store.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pingUntilReady(ctx, deps.Backoff(), logger, "postgres", pool.Ping); err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	logger.Info("connected to database")

	users := postgres.NewUserDirectory(pool)

	var (
		sessions sessionBackend
		wg       sync.WaitGroup
	)
	// Background work must finish before the pool and client are closed.
	defer wg.Wait()

	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()

	switch cfg.Session.Backend {
	case config.BackendRedis:
		var client goredis.UniversalClient
		err := withRetry(ctx, deps.Backoff(), logger, "redis", func(ctx context.Context) error {
			var connErr error
			client, connErr = deps.RedisFactory(ctx, cfg.Secrets.RedisURL)
			return connErr
		})
		if err != nil {
			return oops.With("operation", "connect to redis").Wrap(err)
		}
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				errutil.LogError(logger, "closing redis client", closeErr)
			}
		}()
		sessions = authredis.NewSessionStore(client)
		logger.Info("connected to redis")
	case config.BackendPostgres:
		pgSessions := postgres.NewSessionStore(pool)
		sessions = pgSessions
		wg.Add(1)
		go func() {
			defer wg.Done()
			purgeExpiredSessions(workCtx, pgSessions, cfg.Session.PurgeInterval, logger)
		}()
	}

	hasher, err := auth.NewPasswordHasher(cfg.Auth.Hasher, cfg.Secrets.HashingSecret)
	if err != nil {
		return err
	}
	service, err := auth.NewAuthServiceWithLogger(users, sessions, hasher, logger)
	if err != nil {
		return err
	}

	readiness := func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return storeDown("postgres", err)
		}
		return sessions.Ping(ctx)
	}
	obsServer := observability.NewServer(cfg.Metrics.Addr, readiness, logger)

	classifier, err := access.NewClassifier(cfg.Routes.Table())
	if err != nil {
		return err
	}
	gate, err := access.NewGate(access.GateConfig{
		Classifier:      classifier,
		Sessions:        sessions,
		Users:           users,
		LoginPath:       cfg.Routes.LoginPath,
		WaitingRoomPath: cfg.Routes.WaitingRoomPath,
		Logger:          logger,
		Recorder:        obsServer.Metrics(),
	})
	if err != nil {
		return err
	}
	router, err := web.NewRouter(web.RouterConfig{
		Auth:            service,
		Gate:            gate.Middleware,
		Recorder:        obsServer.Metrics(),
		Logger:          logger,
		InsecureCookies: cfg.HTTP.InsecureCookies,
		LoginPath:       cfg.Routes.LoginPath,
	})
	if err != nil {
		return err
	}

	var obsErrCh <-chan error
	if cfg.Metrics.Addr != "" {
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		defer stopWithTimeout(obsServer.Stop, cfg.HTTP.ShutdownTimeout, logger, "observability server")
	}

	webServer := web.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ReadHeaderTimeout, logger)
	webErrCh, err := webServer.Start()
	if err != nil {
		return err
	}
	defer stopWithTimeout(webServer.Stop, cfg.HTTP.ShutdownTimeout, logger, "web server")

	cmd.Println("ttsfeed started")
	logger.Info("ttsfeed ready", "http_addr", webServer.Addr(), "metrics_addr", obsServer.Addr())
	deps.OnReady(webServer.Addr(), obsServer.Addr())

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err, ok := <-webErrCh:
		if ok && err != nil {
			return oops.Code("WEB_SERVE_FAILED").Wrap(err)
		}
	case err, ok := <-obsErrCh:
		if ok && err != nil {
			return oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(err)
		}
	}
	cancelWork()
	return nil
}

func stopWithTimeout(stopFn func(context.Context) error, timeout time.Duration, logger *slog.Logger, what string) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := stopFn(ctx); err != nil {
		errutil.LogError(logger, "error stopping "+what, err)
	}
}

// purgeExpiredSessions deletes expired session rows every interval until ctx
// is done.
func purgeExpiredSessions(ctx context.Context, sessions *postgres.SessionStore, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				errutil.LogErrorContext(ctx, logger, "purging expired sessions", err)
				continue
			}
			if n > 0 {
				logger.InfoContext(ctx, "purged expired sessions", "count", n)
			}
		}
	}
}
