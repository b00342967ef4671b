// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes = 32                 // 32 bytes = 64 hex chars
	SessionTTL        = 7 * 24 * time.Hour // absolute, from issuance
	SessionCookieName = "session"
)

// Session maps an opaque bearer token to a user until it is deleted or expires.
// Values are built once by a SessionStore and never mutated.
type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSession creates a Session for userID issued at now with the standard TTL.
func NewSession(token string, userID int64, now time.Time) (Session, error) {
	if token == "" {
		return Session{}, oops.Code(CodeInvalidSession).Errorf("session token cannot be empty")
	}
	if userID <= 0 {
		return Session{}, oops.Code(CodeInvalidSession).
			With("user_id", userID).
			Errorf("user ID must be positive")
	}
	return Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}, nil
}

// IsExpiredAt returns true if the session would be expired at the given time.
func (s Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// GenerateSessionToken creates a secure random token.
// The token is lower-case hex, so it never contains ambiguous characters.
func GenerateSessionToken() (string, error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", oops.Code(CodeTokenFailed).
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(tokenBytes), nil
}

// HashSessionToken computes the SHA256 hash of a session token.
// Stores that persist tokens at rest keep only this digest.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionStore is the expiring token → user id mapping.
//
// Backend failures are returned as errors classified KindStoreUnavailable and
// must never be folded into "no session".
type SessionStore interface {
	// Create issues a fresh token for userID with an absolute TTL of SessionTTL.
	Create(ctx context.Context, userID int64) (Session, error)

	// Resolve returns the user id for token. ok is false for an empty, unknown
	// or expired token; those cases are indistinguishable to the caller.
	Resolve(ctx context.Context, token string) (userID int64, ok bool, err error)

	// Delete removes token. Deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error
}
