// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package web_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samber/oops"

	"github.com/ttsfeed/ttsfeed/internal/access"
	"github.com/ttsfeed/ttsfeed/internal/auth"
)

// stubAuth answers with canned results and records the calls it sees.
type stubAuth struct {
	mu sync.Mutex

	session auth.Session
	err     error

	logins    []string
	signups   []auth.SignupRequest
	loggedOut []string
	logoutErr error
}

func (s *stubAuth) Login(_ context.Context, email, _ string) (auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins = append(s.logins, email)
	return s.session, s.err
}

func (s *stubAuth) Signup(_ context.Context, req auth.SignupRequest) (auth.User, auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signups = append(s.signups, req)
	if s.err != nil {
		return auth.User{}, auth.Session{}, s.err
	}
	return auth.User{ID: s.session.UserID, Email: req.Email}, s.session, nil
}

func (s *stubAuth) Logout(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedOut = append(s.loggedOut, token)
	return s.logoutErr
}

type loginCount struct {
	intent, outcome string
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[loginCount]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: make(map[loginCount]int)}
}

func (r *countingRecorder) RecordLogin(intent, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[loginCount{intent, outcome}]++
}

func (r *countingRecorder) count(intent, outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[loginCount{intent, outcome}]
}

// passGate lets every request through, attaching id when it is non-zero.
func passGate(id access.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id.UserID != 0 {
				r = r.WithContext(access.WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// memoryDirectory is an in-process auth.UserDirectory.
type memoryDirectory struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]auth.User
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{users: make(map[int64]auth.User)}
}

func (d *memoryDirectory) FindByID(_ context.Context, id int64) (auth.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return auth.User{}, oops.Code(auth.CodeUserNotFound).Wrap(auth.ErrNotFound)
	}
	return u, nil
}

func (d *memoryDirectory) FindByEmail(_ context.Context, email string) (auth.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return auth.User{}, oops.Code(auth.CodeUserNotFound).Wrap(auth.ErrNotFound)
}

func (d *memoryDirectory) Create(_ context.Context, n auth.NewUser) (auth.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	u := auth.User{
		ID:           d.nextID,
		Email:        n.Email,
		Name:         n.Name,
		PasswordHash: n.PasswordHash,
		IsAdmin:      n.IsAdmin,
		AddedAt:      time.Now(),
	}
	if n.Approved {
		now := time.Now()
		u.ApprovedAt = &now
	}
	d.users[u.ID] = u
	return u, nil
}

func (d *memoryDirectory) UpdatePassword(_ context.Context, id int64, hash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordHash = hash
	d.users[id] = u
	return nil
}

func (d *memoryDirectory) approve(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := d.users[id]
	now := time.Now()
	u.ApprovedAt = &now
	d.users[id] = u
}

// memorySessions is an in-process auth.SessionStore.
type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]int64
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]int64)}
}

func (m *memorySessions) Create(_ context.Context, userID int64) (auth.Session, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return auth.Session{}, err
	}
	s, err := auth.NewSession(token, userID, time.Now())
	if err != nil {
		return auth.Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = userID
	return s, nil
}

func (m *memorySessions) Resolve(_ context.Context, token string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.sessions[token]
	return id, ok, nil
}

func (m *memorySessions) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memorySessions) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func quietLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}
