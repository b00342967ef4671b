// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package web

import (
	"net/http"
	"time"

	"github.com/ttsfeed/ttsfeed/internal/auth"
)

// SetSessionCookie writes the session cookie. Its lifetime matches the
// server-side session TTL. secure must only be false for local plain-HTTP use.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie instructs the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
