// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"
)

// User is an account record read from the directory.
// ApprovedAt stays nil until an administrator approves the account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsAdmin      bool
	ApprovedAt   *time.Time
	AddedAt      time.Time
}

// IsApproved reports whether an administrator has approved the account.
func (u User) IsApproved() bool {
	return u.ApprovedAt != nil
}

// NewUser holds the fields for inserting a user.
type NewUser struct {
	Email        string
	Name         string
	PasswordHash string
	IsAdmin      bool
	// Approved sets approved_at to the insert time.
	Approved bool
}

// ValidateEmail checks that email is non-empty and shaped like user@host.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code(CodeInvalidEmail).Errorf("email cannot be empty")
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return oops.Code(CodeInvalidEmail).
			With("email", email).
			Errorf("email must look like user@host")
	}
	return nil
}

// Validate checks required fields and fills in a default name.
// The returned copy is what should be inserted.
func (n NewUser) Validate() (NewUser, error) {
	n.Email = strings.TrimSpace(n.Email)
	n.Name = strings.TrimSpace(n.Name)

	if err := ValidateEmail(n.Email); err != nil {
		return NewUser{}, err
	}
	if n.PasswordHash == "" {
		return NewUser{}, oops.Code(CodeInvalidUser).Errorf("password hash cannot be empty")
	}
	if n.Name == "" {
		n.Name = n.Email[:strings.IndexByte(n.Email, '@')]
	}
	return n, nil
}

// UserDirectory is the relational store of user records.
//
// Lookups return an error wrapping ErrNotFound when no row matches and an
// error classified KindStoreUnavailable when the store cannot be reached.
type UserDirectory interface {
	// FindByID retrieves a user by id.
	FindByID(ctx context.Context, id int64) (User, error)

	// FindByEmail retrieves a user by exact email.
	FindByEmail(ctx context.Context, email string) (User, error)

	// Create inserts a user and returns it with its assigned id.
	// A duplicate email yields an AUTH_EMAIL_TAKEN error.
	Create(ctx context.Context, user NewUser) (User, error)

	// UpdatePassword replaces the stored hash for a user.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
