// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const pingTimeout = 2 * time.Second

// Connect builds the process-wide client from a redis:// URL and pings it once.
// The caller closes the client at shutdown.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("setting", "REDIS_URL").Wrap(err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // ping failure takes precedence
		return nil, unavailable("connect", err)
	}
	return client, nil
}
