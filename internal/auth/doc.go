// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

// Package auth holds credential handling, sessions and the user directory
// contract.
//
// # Credentials
//
// HashPassword and VerifyPassword implement the keyed HMAC-SHA256 scheme.
// The PasswordHasher implementations wrap it, and UpgradingHasher migrates
// those hashes to argon2id on login.
//
// # Sessions
//
// A SessionStore maps an opaque token to a user id for SessionTTL.
// Implementations live in the redis and postgres subpackages. Backend failures
// are never reported as a missing session; callers check IsStoreUnavailable.
//
// # Services
//
// Service coordinates login, signup, logout and admin bootstrap. It is built
// with NewAuthService, which validates its dependencies.
package auth
