// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package access

import "context"

// Identity is the authenticated user attached to an allowed request.
type Identity struct {
	UserID     int64
	IsApproved bool
	IsAdmin    bool
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity the gate attached, if any.
// Public routes never carry one.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
