// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// HMACHashLen is the length of a hex-encoded HMAC-SHA256 password hash.
const HMACHashLen = sha256.Size * 2

// argon2id parameters (OWASP baseline).
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32
	argon2Prefix  = "$argon2id$"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code(CodeEmptyPassword).Errorf("password not set")

// ErrSecretUnset is returned when the server-side hashing secret is missing.
var ErrSecretUnset = oops.Code(CodeSecretUnset).Errorf("hashing secret not set")

// HashPassword derives the keyed HMAC-SHA256 digest of password under secret.
// The result is deterministic and hex encoded.
func HashPassword(password, secret string) (string, error) {
	if secret == "" {
		return "", ErrSecretUnset
	}
	if password == "" {
		return "", ErrEmptyPassword
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifyPassword recomputes the digest of supplied and compares it to storedHash
// in constant time. An empty supplied password never matches.
func VerifyPassword(supplied, storedHash, secret string) (bool, error) {
	if secret == "" {
		return false, ErrSecretUnset
	}
	if supplied == "" {
		return false, nil
	}
	computed, err := HashPassword(supplied, secret)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1, nil
}

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a storable hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)

	// NeedsUpgrade returns true if the hash should be replaced on next login.
	NeedsUpgrade(hash string) bool
}

// HMACHasher implements PasswordHasher with the unsalted keyed digest used by
// existing accounts.
type HMACHasher struct {
	secret string
}

// NewHMACHasher creates an HMACHasher. The secret is validated on first use so
// misconfiguration surfaces as a ConfigurationError from the operation itself.
func NewHMACHasher(secret string) *HMACHasher {
	return &HMACHasher{secret: secret}
}

// Hash implements PasswordHasher.
func (h *HMACHasher) Hash(password string) (string, error) {
	return HashPassword(password, h.secret)
}

// Verify implements PasswordHasher.
func (h *HMACHasher) Verify(password, hash string) (bool, error) {
	return VerifyPassword(password, hash, h.secret)
}

// NeedsUpgrade is always false; HMAC is the current scheme for this hasher.
func (h *HMACHasher) NeedsUpgrade(string) bool {
	return false
}

// Argon2idHasher implements PasswordHasher using salted argon2id.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces a PHC-encoded argon2id hash:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code(CodeSaltFailed).Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// argon2Params is a decoded PHC argon2id string.
type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseArgon2id(encoded string) (*argon2Params, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, oops.Code(CodeInvalidHash).Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return nil, oops.Code(CodeInvalidHash).Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, oops.Code(CodeInvalidHash).Wrap(err)
	}
	if version != argon2.Version {
		return nil, oops.Code(CodeInvalidHash).With("version", version).Errorf("unsupported argon2 version")
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return nil, oops.Code(CodeInvalidHash).Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return nil, oops.Code(CodeInvalidHash).Errorf("threads value %d out of range", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, oops.Code(CodeInvalidHash).Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, oops.Code(CodeInvalidHash).Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return nil, oops.Code(CodeInvalidHash).Errorf("invalid hash key length: %d", len(key))
	}

	return &argon2Params{
		memory:  memory,
		time:    iterations,
		threads: uint8(threads),
		salt:    salt,
		key:     key,
	}, nil
}

// Verify checks if the password matches the hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	p, err := parseArgon2id(encodedHash)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1, nil
}

// NeedsUpgrade returns true if the hash is not argon2id.
func (h *Argon2idHasher) NeedsUpgrade(hash string) bool {
	return !strings.HasPrefix(hash, argon2Prefix)
}

// UpgradingHasher hashes new passwords with argon2id while still accepting
// legacy HMAC hashes, which login replaces on the next successful attempt.
type UpgradingHasher struct {
	current *Argon2idHasher
	legacy  *HMACHasher
}

// NewUpgradingHasher creates an UpgradingHasher. secret keys the legacy HMAC scheme.
func NewUpgradingHasher(secret string) *UpgradingHasher {
	return &UpgradingHasher{
		current: NewArgon2idHasher(),
		legacy:  NewHMACHasher(secret),
	}
}

// Hash implements PasswordHasher.
func (h *UpgradingHasher) Hash(password string) (string, error) {
	return h.current.Hash(password)
}

// Verify implements PasswordHasher, dispatching on the hash format.
func (h *UpgradingHasher) Verify(password, hash string) (bool, error) {
	if strings.HasPrefix(hash, argon2Prefix) {
		return h.current.Verify(password, hash)
	}
	return h.legacy.Verify(password, hash)
}

// NeedsUpgrade implements PasswordHasher.
func (h *UpgradingHasher) NeedsUpgrade(hash string) bool {
	return h.current.NeedsUpgrade(hash)
}

// NewPasswordHasher returns the hasher named by algorithm. "argon2id" (the
// default) upgrades legacy HMAC hashes; "hmac" keeps writing them.
func NewPasswordHasher(algorithm, secret string) (PasswordHasher, error) {
	switch algorithm {
	case "", "argon2id":
		return NewUpgradingHasher(secret), nil
	case "hmac":
		return NewHMACHasher(secret), nil
	default:
		return nil, oops.Code("CONFIG_INVALID").
			With("hasher", algorithm).
			Errorf("unknown password hasher %q", algorithm)
	}
}
