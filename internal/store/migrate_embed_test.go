// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package store

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	names := make(map[string]bool, len(entries))
	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	for _, entry := range entries {
		names[entry.Name()] = true
		assert.Regexp(t, pattern, entry.Name())
	}

	// Every up has a matching down.
	for name := range names {
		if base, ok := strings.CutSuffix(name, ".up.sql"); ok {
			assert.True(t, names[base+".down.sql"], "missing down migration for %s", name)
		}
	}

	assert.True(t, names["000001_users.up.sql"])
	assert.True(t, names["000002_sessions.up.sql"])
}

func TestEmbeddedVersions(t *testing.T) {
	versions, err := embeddedVersions()
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, versions)
}

func TestSessionsMigration_OutlivesUsers(t *testing.T) {
	body, err := migrationsFS.ReadFile("migrations/000002_sessions.up.sql")
	require.NoError(t, err)

	sql := strings.ToUpper(string(body))
	assert.NotContains(t, sql, "REFERENCES", "sessions must not be tied to users rows")
	assert.NotContains(t, sql, "ON DELETE")
}
