// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package auth_test

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttsfeed/ttsfeed/internal/auth"
	"github.com/ttsfeed/ttsfeed/pkg/errutil"
)

func TestGenerateSessionToken(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		token, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.Len(t, token, 2*auth.SessionTokenBytes)

		_, err = hex.DecodeString(token)
		require.NoError(t, err, "token should be hex")

		assert.False(t, seen[token], "duplicate token")
		seen[token] = true
	}
}

func TestHashSessionToken(t *testing.T) {
	a := auth.HashSessionToken("token")
	assert.Len(t, a, 64)
	assert.Equal(t, a, auth.HashSessionToken("token"))
	assert.NotEqual(t, a, auth.HashSessionToken("other"))
	assert.NotEqual(t, "token", a)
}

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("expires seven days after issue", func(t *testing.T) {
		s, err := auth.NewSession("tok", 9, now)
		require.NoError(t, err)
		assert.Equal(t, int64(9), s.UserID)
		assert.Equal(t, now, s.CreatedAt)
		assert.Equal(t, now.Add(7*24*time.Hour), s.ExpiresAt)
	})

	t.Run("rejects empty token", func(t *testing.T) {
		_, err := auth.NewSession("", 9, now)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidSession)
	})

	t.Run("rejects non-positive user", func(t *testing.T) {
		_, err := auth.NewSession("tok", 0, now)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidSession)
		errutil.AssertErrorContext(t, err, "user_id", int64(0))
	})
}

func TestSession_IsExpiredAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := auth.NewSession("tok", 1, now)
	require.NoError(t, err)

	assert.False(t, s.IsExpiredAt(now))
	assert.False(t, s.IsExpiredAt(s.ExpiresAt.Add(-time.Nanosecond)))
	assert.True(t, s.IsExpiredAt(s.ExpiresAt))
	assert.True(t, s.IsExpiredAt(s.ExpiresAt.Add(time.Hour)))
}
