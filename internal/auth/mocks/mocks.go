// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

// Package mocks holds testify mocks for the auth interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ttsfeed/ttsfeed/internal/auth"
)

// TestingT is what the constructors need from *testing.T.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockUserDirectory mocks auth.UserDirectory.
type MockUserDirectory struct {
	mock.Mock
}

// NewMockUserDirectory returns a mock whose expectations are asserted at cleanup.
func NewMockUserDirectory(t TestingT) *MockUserDirectory {
	m := &MockUserDirectory{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// FindByID implements auth.UserDirectory.
func (m *MockUserDirectory) FindByID(ctx context.Context, id int64) (auth.User, error) {
	ret := m.Called(ctx, id)
	return ret.Get(0).(auth.User), ret.Error(1)
}

// FindByEmail implements auth.UserDirectory.
func (m *MockUserDirectory) FindByEmail(ctx context.Context, email string) (auth.User, error) {
	ret := m.Called(ctx, email)
	return ret.Get(0).(auth.User), ret.Error(1)
}

// Create implements auth.UserDirectory.
func (m *MockUserDirectory) Create(ctx context.Context, user auth.NewUser) (auth.User, error) {
	ret := m.Called(ctx, user)
	return ret.Get(0).(auth.User), ret.Error(1)
}

// UpdatePassword implements auth.UserDirectory.
func (m *MockUserDirectory) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

// MockSessionStore mocks auth.SessionStore.
type MockSessionStore struct {
	mock.Mock
}

// NewMockSessionStore returns a mock whose expectations are asserted at cleanup.
func NewMockSessionStore(t TestingT) *MockSessionStore {
	m := &MockSessionStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create implements auth.SessionStore.
func (m *MockSessionStore) Create(ctx context.Context, userID int64) (auth.Session, error) {
	ret := m.Called(ctx, userID)
	return ret.Get(0).(auth.Session), ret.Error(1)
}

// Resolve implements auth.SessionStore.
func (m *MockSessionStore) Resolve(ctx context.Context, token string) (int64, bool, error) {
	ret := m.Called(ctx, token)
	return ret.Get(0).(int64), ret.Bool(1), ret.Error(2)
}

// Delete implements auth.SessionStore.
func (m *MockSessionStore) Delete(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// MockPasswordHasher mocks auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher returns a mock whose expectations are asserted at cleanup.
func NewMockPasswordHasher(t TestingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash implements auth.PasswordHasher.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

// Verify implements auth.PasswordHasher.
func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	ret := m.Called(password, hash)
	return ret.Bool(0), ret.Error(1)
}

// NeedsUpgrade implements auth.PasswordHasher.
func (m *MockPasswordHasher) NeedsUpgrade(hash string) bool {
	return m.Called(hash).Bool(0)
}
