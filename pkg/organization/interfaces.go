// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package organization

import (
	"context"
	"time"

	"github.com/canonical/organization-service/internal/types"
)

type ServiceInterface interface {
	CreateOrganization(ctx context.Context, actorID, name, slug string) (*types.Organization, error)
	GetOrganization(ctx context.Context, organizationID string) (*types.Organization, error)
	ListMyOrganizations(ctx context.Context, userID string) ([]*types.Organization, error)
	ListOrganizations(ctx context.Context, page, size int64) ([]*types.Organization, error)
	UpdateOrganization(ctx context.Context, actorID, organizationID string, upd types.OrganizationUpdate) (*types.Organization, error)
	DeleteOrganization(ctx context.Context, actorID, organizationID string) error
	ListMembers(ctx context.Context, organizationID string) ([]*types.Membership, error)
	AddMember(ctx context.Context, actorID, organizationID string, req MemberRequest) (*types.Membership, error)
	UpdateMember(ctx context.Context, actorID, organizationID, userID string, upd types.MembershipUpdate) (*types.Membership, error)
	RemoveMember(ctx context.Context, actorID, organizationID, userID string) error
	MyPermissions(ctx context.Context, userID, organizationID string) (types.PermissionSet, error)
}

type StorageInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	CreateOrganization(ctx context.Context, o *types.Organization) (*types.Organization, error)
	GetOrganization(ctx context.Context, id string) (*types.Organization, error)
	ListOrganizations(ctx context.Context, page, size int64) ([]*types.Organization, error)
	ListOrganizationsByUser(ctx context.Context, userID string) ([]*types.Organization, error)
	UpdateOrganization(ctx context.Context, id string, upd types.OrganizationUpdate, now time.Time) (*types.Organization, error)
	SoftDeleteOrganization(ctx context.Context, id string, now time.Time) error
	GetMembership(ctx context.Context, organizationID, userID string) (*types.Membership, error)
	ListMembers(ctx context.Context, organizationID string) ([]*types.Membership, error)
	CreateMembership(ctx context.Context, organizationID, userID, roleID string) (*types.Membership, error)
	UpdateMembership(ctx context.Context, id string, upd types.MembershipUpdate, now time.Time) error
	SoftDeleteMembership(ctx context.Context, id string, now time.Time) error
	SoftDeleteMembershipsByOrganization(ctx context.Context, organizationID string, now time.Time) (int64, error)
	CountActiveMembersWithRole(ctx context.Context, organizationID, roleName string) (int, error)
	GetRole(ctx context.Context, id string) (*types.Role, error)
	GetRoleByName(ctx context.Context, name string) (*types.Role, error)
	SoftDeleteInvitationsByOrganization(ctx context.Context, organizationID string, now time.Time) (int64, error)
}

// UsersInterface provisions local users for authenticated subjects.
type UsersInterface interface {
	EnsureUser(ctx context.Context, userID string) (*types.User, error)
}

type KratosClientInterface interface {
	GetIdentityIDByEmail(ctx context.Context, email string) (string, error)
}

type AuthorizerInterface interface {
	ResolvePermissions(ctx context.Context, userID, organizationID string) (types.PermissionSet, error)
	CanGrantRole(ctx context.Context, actorID, organizationID, roleID string) error
}

type AuditInterface interface {
	Record(ctx context.Context, entry *types.AuditLog) error
}
