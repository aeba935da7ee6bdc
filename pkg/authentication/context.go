// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import "context"

type userIDKey struct{}

// WithUserID stores the authenticated identity ID on the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID returns the authenticated identity ID, if any. An empty ID is
// reported as absent.
func GetUserID(ctx context.Context) (string, bool) {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id, id != ""
}

// ActorID returns the identity recorded as actor in audit entries, empty for
// anonymous calls.
func ActorID(ctx context.Context) string {
	id, _ := GetUserID(ctx)
	return id
}
