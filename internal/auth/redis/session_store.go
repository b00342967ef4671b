// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

// Package redis implements auth.SessionStore on Redis, relying on native key
// expiry for the session TTL.
package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/ttsfeed/ttsfeed/internal/auth"
)

const keyPrefix = "session:"

// SessionStore implements auth.SessionStore using Redis.
type SessionStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionStore creates a Redis-backed session store. The client is owned
// by the caller and must outlive the store.
func NewSessionStore(client goredis.UniversalClient) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    auth.SessionTTL,
		now:    time.Now,
	}
}

func key(token string) string {
	return keyPrefix + token
}

func unavailable(op string, err error) error {
	return oops.Code(auth.CodeStoreUnavailable).
		With("backend", "redis").
		With("operation", op).
		Wrap(err)
}

// Create stores a fresh token for userID with SET ... EX.
func (s *SessionStore) Create(ctx context.Context, userID int64) (auth.Session, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return auth.Session{}, err
	}
	session, err := auth.NewSession(token, userID, s.now())
	if err != nil {
		return auth.Session{}, err
	}

	if err := s.client.Set(ctx, key(token), strconv.FormatInt(userID, 10), s.ttl).Err(); err != nil {
		return auth.Session{}, unavailable("set", err)
	}
	return session, nil
}

// Resolve looks the token up. An empty token never reaches Redis.
func (s *SessionStore) Resolve(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}

	val, err := s.client.Get(ctx, key(token)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, unavailable("get", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil || userID <= 0 {
		// Not written by Create; treat like an unknown token.
		return 0, false, nil
	}
	return userID, true, nil
}

// Delete removes the token. DEL on a missing key is a no-op.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, key(token)).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}
