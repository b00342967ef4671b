// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Kind classifies an error so callers can branch without parsing messages.
type Kind int

const (
	// KindUnknown is any error without a recognised code.
	KindUnknown Kind = iota
	// KindValidation covers missing or malformed input.
	KindValidation
	// KindConfiguration covers missing server-side settings such as the hashing secret.
	KindConfiguration
	// KindAuthentication covers wrong credentials and duplicate accounts.
	KindAuthentication
	// KindStoreUnavailable covers session store or directory failures. Always fatal.
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// Error codes. Every error produced by this package and its backends carries one.
const (
	CodeEmptyPassword      = "AUTH_EMPTY_PASSWORD"
	CodePasswordMismatch   = "AUTH_PASSWORD_MISMATCH"
	CodeInvalidEmail       = "AUTH_INVALID_EMAIL"
	CodeInvalidUser        = "AUTH_INVALID_USER"
	CodeAdminFieldMissing  = "AUTH_ADMIN_FIELD_MISSING"
	CodeInvalidHash        = "AUTH_INVALID_HASH"
	CodeSecretUnset        = "AUTH_SECRET_UNSET"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeEmailTaken         = "AUTH_EMAIL_TAKEN"
	CodeSaltFailed         = "AUTH_SALT_FAILED"
	CodeTokenFailed        = "SESSION_TOKEN_GENERATE_FAILED"
	CodeInvalidSession     = "SESSION_INVALID_USER"
	CodeStoreUnavailable   = "SESSION_STORE_UNAVAILABLE"
	CodeDirectoryDown      = "DIRECTORY_UNAVAILABLE"
	CodeUserNotFound       = "USER_NOT_FOUND"
)

var kindByCode = map[string]Kind{
	CodeEmptyPassword:      KindValidation,
	CodePasswordMismatch:   KindValidation,
	CodeInvalidEmail:       KindValidation,
	CodeInvalidUser:        KindValidation,
	CodeAdminFieldMissing:  KindValidation,
	CodeInvalidHash:        KindValidation,
	CodeInvalidSession:     KindValidation,
	CodeSecretUnset:        KindConfiguration,
	CodeInvalidCredentials: KindAuthentication,
	CodeEmailTaken:         KindAuthentication,
	CodeStoreUnavailable:   KindStoreUnavailable,
	CodeDirectoryDown:      KindStoreUnavailable,
}

// KindOf reports the kind of err.
// oops reports the deepest code in a wrapped chain, so a store failure
// wrapped by a service-level code still classifies as store unavailable.
func KindOf(err error) Kind {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindUnknown
	}
	code, _ := oopsErr.Code().(string)
	return kindByCode[code]
}

// IsStoreUnavailable reports whether err means a backing store could not be reached.
func IsStoreUnavailable(err error) bool {
	return KindOf(err) == KindStoreUnavailable
}
