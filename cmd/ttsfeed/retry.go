// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ttsfeed/ttsfeed/internal/auth"
)

const pingTimeout = 2 * time.Second

// withRetry runs attempt until it succeeds, fails with an error that is not a
// store outage, or the backoff gives up. Only outages are retried; bad
// configuration fails on the first attempt.
func withRetry(ctx context.Context, backoff retry.Backoff, logger *slog.Logger, what string, attempt func(ctx context.Context) error) error {
	n := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		n++
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		if !auth.IsStoreUnavailable(err) {
			return err
		}
		logger.WarnContext(ctx, "dependency not reachable yet", "dependency", what, "attempt", n, "error", err)
		return retry.RetryableError(err)
	})
}

// pingUntilReady pings until the dependency answers. ping failures are
// treated as outages.
func pingUntilReady(ctx context.Context, backoff retry.Backoff, logger *slog.Logger, what string, ping func(ctx context.Context) error) error {
	return withRetry(ctx, backoff, logger, what, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := ping(pingCtx); err != nil {
			return storeDown(what, err)
		}
		return nil
	})
}
