// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/ttsfeed/ttsfeed/internal/auth"
)

const userColumns = `id, email, name, password_hash, is_admin, approved_at, added_at`

// UserDirectory implements auth.UserDirectory using PostgreSQL.
type UserDirectory struct {
	pool Pool
	now  func() time.Time
}

// NewUserDirectory creates a new UserDirectory.
func NewUserDirectory(pool Pool) *UserDirectory {
	return &UserDirectory{pool: pool, now: time.Now}
}

func directoryDown(op string, err error) error {
	return oops.Code(auth.CodeDirectoryDown).With("operation", op).Wrap(err)
}

// FindByID retrieves a user by id.
func (d *UserDirectory) FindByID(ctx context.Context, id int64) (auth.User, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, oops.Code(auth.CodeUserNotFound).With("user_id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return auth.User{}, directoryDown("find user by id", err)
	}
	return user, nil
}

// FindByEmail retrieves a user by exact email.
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (auth.User, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, oops.Code(auth.CodeUserNotFound).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return auth.User{}, directoryDown("find user by email", err)
	}
	return user, nil
}

// Create inserts a user. approved_at is stamped when the record is created approved.
func (d *UserDirectory) Create(ctx context.Context, fields auth.NewUser) (auth.User, error) {
	fields, err := fields.Validate()
	if err != nil {
		return auth.User{}, err
	}

	var approvedAt *time.Time
	if fields.Approved {
		t := d.now().UTC()
		approvedAt = &t
	}

	row := d.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, is_admin, approved_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		fields.Email, fields.Name, fields.PasswordHash, fields.IsAdmin, approvedAt,
	)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return auth.User{}, oops.Code(auth.CodeEmailTaken).
				With("constraint", pgErr.ConstraintName).
				Wrapf(err, "user with that email already exists")
		}
		return auth.User{}, directoryDown("insert user", err)
	}
	return user, nil
}

// UpdatePassword replaces the stored hash for a user.
func (d *UserDirectory) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := d.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return directoryDown("update password", err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code(auth.CodeUserNotFound).With("user_id", id).Wrap(auth.ErrNotFound)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (d *UserDirectory) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return directoryDown("ping", err)
	}
	return nil
}

func scanUser(row pgx.Row) (auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.ApprovedAt, &u.AddedAt)
	if err != nil {
		return auth.User{}, err //nolint:wrapcheck // callers classify pgx errors
	}
	return u, nil
}
