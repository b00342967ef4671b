// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package web_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttsfeed/ttsfeed/internal/web"
)

func TestSetSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	web.SetSessionCookie(rec, "abc123", true)

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, "abc123", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 7*24*60*60, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestSetSessionCookie_Insecure(t *testing.T) {
	rec := httptest.NewRecorder()
	web.SetSessionCookie(rec, "abc123", false)

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.False(t, c.Secure)
	assert.True(t, c.HttpOnly)
}

func TestClearSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	web.ClearSessionCookie(rec, true)

	header := rec.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(header, "session=;"), header)
	assert.Contains(t, header, "Max-Age=0")
	assert.Contains(t, header, "Path=/")

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Negative(t, c.MaxAge)
}
