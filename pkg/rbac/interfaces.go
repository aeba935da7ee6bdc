// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rbac

import (
	"context"
	"time"

	"github.com/canonical/organization-service/internal/types"
)

type ServiceInterface interface {
	ListRoles(ctx context.Context) ([]*types.Role, error)
	GetRole(ctx context.Context, roleID string) (*types.Role, error)
	CreateRole(ctx context.Context, actorID, name, description string) (*types.Role, error)
	UpdateRole(ctx context.Context, actorID, roleID string, name, description *string) (*types.Role, error)
	DeleteRole(ctx context.Context, actorID, roleID string) error
	ListPermissions(ctx context.Context) ([]*types.Permission, error)
	CreatePermission(ctx context.Context, actorID, key, category, description string) (*types.Permission, error)
	GetPermissionsForRole(ctx context.Context, roleID string) ([]*types.Permission, error)
	SetRolePermissions(ctx context.Context, actorID, roleID string, permissionIDs []string) ([]*types.Permission, error)
}

type StorageInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
	ListRoles(ctx context.Context) ([]*types.Role, error)
	GetRole(ctx context.Context, id string) (*types.Role, error)
	CreateRole(ctx context.Context, name, description string) (*types.Role, error)
	UpsertRole(ctx context.Context, name, description string) (*types.Role, error)
	UpdateRole(ctx context.Context, id string, name, description *string, now time.Time) (*types.Role, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]*types.Permission, error)
	ListPermissionsByIDs(ctx context.Context, ids []string) ([]*types.Permission, error)
	ListPermissionsByRole(ctx context.Context, roleID string) ([]*types.Permission, error)
	CreatePermission(ctx context.Context, key, category, description string) (*types.Permission, error)
	UpsertPermission(ctx context.Context, key, category, description string) (*types.Permission, error)
	AddRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error
	RemoveRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error
}

type AuditInterface interface {
	Record(ctx context.Context, entry *types.AuditLog) error
}
