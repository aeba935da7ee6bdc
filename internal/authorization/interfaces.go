// Copyright 2025 Canonical Ltd
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"net/http"

	"github.com/canonical/organization-service/internal/types"
)

type AuthorizerInterface interface {
	// ResolvePermissions returns the permission keys the user holds in the
	// organization. It never grants anything on error.
	ResolvePermissions(ctx context.Context, userID, organizationID string) (types.PermissionSet, error)
	Check(ctx context.Context, userID, organizationID, key string) (bool, error)
	IsPlatformAdmin(ctx context.Context, userID string) (bool, error)
	// CanGrantRole fails with types.ErrRoleEscalation unless the actor holds
	// every permission of the role in the organization.
	CanGrantRole(ctx context.Context, actorID, organizationID, roleID string) error
}

type StorageInterface interface {
	ListPermissionKeysForMember(ctx context.Context, userID, organizationID string) ([]string, error)
	ListPermissionsByRole(ctx context.Context, roleID string) ([]*types.Permission, error)
	IsPlatformAdmin(ctx context.Context, userID string) (bool, error)
}

// MiddlewareInterface is the route guard used by the API packages.
type MiddlewareInterface interface {
	RequirePermission(key string) func(http.Handler) http.Handler
	RequirePlatformAdmin() func(http.Handler) http.Handler
}
