// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"time"

	"github.com/canonical/organization-service/internal/types"
)

type TxInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

type UserStorageInterface interface {
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	IsPlatformAdmin(ctx context.Context, userID string) (bool, error)
	SoftDeleteUser(ctx context.Context, id string, now time.Time) error
}

type OrganizationStorageInterface interface {
	CreateOrganization(ctx context.Context, o *types.Organization) (*types.Organization, error)
	GetOrganization(ctx context.Context, id string) (*types.Organization, error)
	ListOrganizations(ctx context.Context, page, size int64) ([]*types.Organization, error)
	ListOrganizationsByUser(ctx context.Context, userID string) ([]*types.Organization, error)
	UpdateOrganization(ctx context.Context, id string, upd types.OrganizationUpdate, now time.Time) (*types.Organization, error)
	SoftDeleteOrganization(ctx context.Context, id string, now time.Time) error
}

type MembershipStorageInterface interface {
	GetMembership(ctx context.Context, organizationID, userID string) (*types.Membership, error)
	ListMembers(ctx context.Context, organizationID string) ([]*types.Membership, error)
	CreateMembership(ctx context.Context, organizationID, userID, roleID string) (*types.Membership, error)
	UpdateMembership(ctx context.Context, id string, upd types.MembershipUpdate, now time.Time) error
	SoftDeleteMembership(ctx context.Context, id string, now time.Time) error
	SoftDeleteMembershipsByOrganization(ctx context.Context, organizationID string, now time.Time) (int64, error)
	SoftDeleteMembershipsByUser(ctx context.Context, userID string, now time.Time) (int64, error)
	CountActiveMembersWithRole(ctx context.Context, organizationID, roleName string) (int, error)
	ListPermissionKeysForMember(ctx context.Context, userID, organizationID string) ([]string, error)
}

type RBACStorageInterface interface {
	ListRoles(ctx context.Context) ([]*types.Role, error)
	GetRole(ctx context.Context, id string) (*types.Role, error)
	GetRoleByName(ctx context.Context, name string) (*types.Role, error)
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

type InvitationStorageInterface interface {
	CreateInvitation(ctx context.Context, inv *types.Invitation) (*types.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*types.Invitation, error)
	GetInvitation(ctx context.Context, organizationID, id string) (*types.Invitation, error)
	GetInvitationByEmail(ctx context.Context, organizationID, email string) (*types.Invitation, error)
	ListInvitations(ctx context.Context, organizationID string) ([]*types.Invitation, error)
	ExpireInvitation(ctx context.Context, id string, now time.Time) (bool, error)
	ExpireStaleInvitations(ctx context.Context, now time.Time) (int64, error)
	MarkInvitationAccepted(ctx context.Context, id, userID string, now time.Time) (bool, error)
	SoftDeleteInvitation(ctx context.Context, id string, now time.Time) error
	SoftDeleteInvitationsByOrganization(ctx context.Context, organizationID string, now time.Time) (int64, error)
	ClearInvitationInviter(ctx context.Context, userID string, now time.Time) (int64, error)
}

type AuditStorageInterface interface {
	CreateAuditLog(ctx context.Context, entry *types.AuditLog) error
	ListAuditLogs(ctx context.Context, filter types.AuditFilter) ([]*types.AuditLog, error)
}

type StorageInterface interface {
	TxInterface
	UserStorageInterface
	OrganizationStorageInterface
	MembershipStorageInterface
	RBACStorageInterface
	InvitationStorageInterface
	AuditStorageInterface
}
