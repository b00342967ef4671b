// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/require"

	"github.com/ttsfeed/ttsfeed/internal/config"
)

func testEnv(extra map[string]string) func(string) string {
	vars := map[string]string{
		config.EnvHashingSecret: "test-secret",
		config.EnvDatabaseURL:   "postgres://ttsfeed@localhost/ttsfeed",
	}
	for k, v := range extra {
		vars[k] = v
	}
	return func(key string) string { return vars[key] }
}

func fastBackoff() retry.Backoff {
	return retry.WithMaxRetries(3, retry.NewConstant(time.Millisecond))
}

// execute runs the CLI with deps and args, returning the command output.
func execute(t *testing.T, ctx context.Context, deps *Deps, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := newRootCmd(deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func mustNotCall(t *testing.T, what string) {
	t.Helper()
	require.FailNow(t, what+" must not be called")
}
