// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/ttsfeed/ttsfeed/internal/auth"
)

// SessionStore implements auth.SessionStore on a table without native expiry.
// Only the SHA-256 digest of each token is persisted.
type SessionStore struct {
	pool Pool
	now  func() time.Time
}

// NewSessionStore creates a PostgreSQL-backed session store.
func NewSessionStore(pool Pool) *SessionStore {
	return &SessionStore{pool: pool, now: time.Now}
}

func unavailable(op string, err error) error {
	return oops.Code(auth.CodeStoreUnavailable).
		With("backend", "postgres").
		With("operation", op).
		Wrap(err)
}

// Create stores a fresh session for userID.
func (s *SessionStore) Create(ctx context.Context, userID int64) (auth.Session, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return auth.Session{}, err
	}
	session, err := auth.NewSession(token, userID, s.now().UTC())
	if err != nil {
		return auth.Session{}, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (token_hash, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, auth.HashSessionToken(token), userID, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return auth.Session{}, unavailable("insert session", err)
	}
	return session, nil
}

// Resolve returns the owner of token if the row exists and has not expired.
// An expired row is deleted on sight.
func (s *SessionStore) Resolve(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	hash := auth.HashSessionToken(token)

	var (
		userID    int64
		expiresAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, expires_at FROM sessions WHERE token_hash = $1`, hash,
	).Scan(&userID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, unavailable("select session", err)
	}

	if !s.now().Before(expiresAt) {
		// Best effort; the answer is already "none".
		_, _ = s.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, hash) //nolint:errcheck // purged again by PurgeExpired
		return 0, false, nil
	}
	return userID, true, nil
}

// Delete removes the session for token. Missing rows are not an error.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, auth.HashSessionToken(token)); err != nil {
		return unavailable("delete session", err)
	}
	return nil
}

// PurgeExpired deletes every session whose expiry has passed and returns how
// many rows were removed.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, unavailable("purge expired sessions", err)
	}
	return tag.RowsAffected(), nil
}

// Ping reports whether the database is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}
