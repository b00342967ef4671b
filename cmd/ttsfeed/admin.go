// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/ttsfeed/ttsfeed/internal/auth"
	"github.com/ttsfeed/ttsfeed/internal/auth/postgres"
	"github.com/ttsfeed/ttsfeed/internal/config"
	"github.com/ttsfeed/ttsfeed/internal/store"
	"github.com/ttsfeed/ttsfeed/pkg/errutil"
)

// NewCreateAdminCmd creates the create-admin subcommand.
func NewCreateAdminCmd() *cobra.Command {
	return newCreateAdminCmd(nil)
}

func newCreateAdminCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "create-admin",
		Short: "Create the approved administrator account",
		Long: `Create an approved administrator from APP_ADMIN_NAME, APP_ADMIN_EMAIL and
APP_ADMIN_PASSWORD. Running it again once the account exists is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCreateAdmin(cmd.Context(), cmd, deps)
		},
	}
}

func runCreateAdmin(ctx context.Context, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd, deps.Getenv)
	if err != nil {
		return err
	}
	for setting, value := range map[string]string{
		config.EnvDatabaseURL:   cfg.Secrets.DatabaseURL,
		config.EnvHashingSecret: cfg.Secrets.HashingSecret,
	} {
		if value == "" {
			return oops.Code("CONFIG_INVALID").With("setting", setting).
				Errorf("%s environment variable is required", setting)
		}
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	pool, err := deps.PoolFactory(ctx, cfg.Secrets.DatabaseURL, store.PoolOptions{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pingUntilReady(ctx, deps.Backoff(), logger, "postgres", pool.Ping); err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}

	hasher, err := auth.NewPasswordHasher(cfg.Auth.Hasher, cfg.Secrets.HashingSecret)
	if err != nil {
		return err
	}
	service, err := auth.NewAuthServiceWithLogger(
		postgres.NewUserDirectory(pool),
		postgres.NewSessionStore(pool),
		hasher,
		logger,
	)
	if err != nil {
		return err
	}

	admin := config.AdminFromEnv(deps.Getenv)
	user, err := service.CreateAdmin(ctx, admin.Name, admin.Email, admin.Password)
	if err != nil {
		if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == auth.CodeEmailTaken {
			cmd.Printf("Admin %s already exists\n", admin.Email)
			return nil
		}
		errutil.LogError(logger, "create admin failed", err)
		return err
	}

	cmd.Printf("Created admin %s (id %d)\n", user.Email, user.ID)
	return nil
}
