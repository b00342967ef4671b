// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/ttsfeed/ttsfeed/pkg/errutil"
)

// Service orchestrates login, signup, logout and admin bootstrap on top of
// the directory, the session store and the password hasher.
type Service struct {
	users    UserDirectory
	sessions SessionStore
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewAuthService creates a new Service using the default logger.
func NewAuthService(users UserDirectory, sessions SessionStore, hasher PasswordHasher) (*Service, error) {
	return NewAuthServiceWithLogger(users, sessions, hasher, slog.Default())
}

// NewAuthServiceWithLogger creates a new Service with an explicit logger.
func NewAuthServiceWithLogger(users UserDirectory, sessions SessionStore, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("user directory is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("session store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("logger is required")
	}
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
	}, nil
}

// dummyPasswordHash is verified against when the email is unknown so both
// failure paths cost the same.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// errInvalidCredentials is shared by the unknown-email and wrong-password paths.
func errInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
}

// Login verifies the password for email and issues a session.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Session{}, oops.Code(CodeInvalidEmail).Errorf("email cannot be empty")
	}
	if password == "" {
		return Session{}, ErrEmptyPassword
	}

	user, lookupErr := s.users.FindByEmail(ctx, email)
	userExists := lookupErr == nil
	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		return Session{}, oops.In("login").
			With("operation", "find user by email").
			Wrap(lookupErr)
	}

	targetHash := dummyPasswordHash
	if userExists {
		targetHash = user.PasswordHash
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if KindOf(verifyErr) == KindConfiguration {
			return Session{}, verifyErr
		}
		if !userExists {
			return Session{}, errInvalidCredentials()
		}
		return Session{}, oops.In("login").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(verifyErr)
	}
	if !userExists || !valid {
		return Session{}, errInvalidCredentials()
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return Session{}, oops.In("login").
			With("operation", "create session").
			With("user_id", user.ID).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return session, nil
}

// upgradeHash rehashes a legacy credential. Login succeeds regardless.
func (s *Service) upgradeHash(ctx context.Context, user User, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "password rehash failed", err)
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "password upgrade not persisted", err)
		return
	}
	s.logger.InfoContext(ctx, "password hash upgraded", "user_id", user.ID)
}

// SignupRequest carries the signup form.
type SignupRequest struct {
	Email           string
	Name            string
	Password        string
	ConfirmPassword string
}

// Signup creates an unapproved, non-admin user and logs them in.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (User, Session, error) {
	if req.Password != req.ConfirmPassword {
		return User{}, Session{}, oops.Code(CodePasswordMismatch).Errorf("passwords do not match")
	}

	user, err := s.createUser(ctx, NewUser{
		Email: req.Email,
		Name:  req.Name,
	}, req.Password)
	if err != nil {
		return User{}, Session{}, err
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return User{}, Session{}, oops.In("signup").
			With("operation", "create session").
			With("user_id", user.ID).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, session, nil
}

// CreateAdmin bootstraps an approved administrator account.
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (User, error) {
	switch {
	case strings.TrimSpace(name) == "":
		return User{}, oops.Code(CodeAdminFieldMissing).With("field", "name").Errorf("admin name not set")
	case strings.TrimSpace(email) == "":
		return User{}, oops.Code(CodeAdminFieldMissing).With("field", "email").Errorf("admin email not set")
	case password == "":
		return User{}, oops.Code(CodeAdminFieldMissing).With("field", "password").Errorf("admin password not set")
	}

	user, err := s.createUser(ctx, NewUser{
		Email:    email,
		Name:     name,
		IsAdmin:  true,
		Approved: true,
	}, password)
	if err != nil {
		return User{}, err
	}

	s.logger.InfoContext(ctx, "admin user created", "user_id", user.ID)
	return user, nil
}

// createUser checks for an existing email, hashes the password and inserts.
// The directory's unique constraint still backs the pre-check.
func (s *Service) createUser(ctx context.Context, fields NewUser, password string) (User, error) {
	fields.Email = strings.TrimSpace(fields.Email)
	if err := ValidateEmail(fields.Email); err != nil {
		return User{}, err
	}

	_, err := s.users.FindByEmail(ctx, fields.Email)
	switch {
	case err == nil:
		return User{}, oops.Code(CodeEmailTaken).Errorf("user with that email already exists")
	case !errors.Is(err, ErrNotFound):
		return User{}, oops.In("signup").
			With("operation", "find user by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, err
	}
	fields.PasswordHash = hash

	validated, err := fields.Validate()
	if err != nil {
		return User{}, err
	}

	user, err := s.users.Create(ctx, validated)
	if err != nil {
		return User{}, oops.In("signup").
			With("operation", "create user").
			Wrap(err)
	}
	return user, nil
}

// Logout revokes the session token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return oops.In("logout").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}
