// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"time"

	"github.com/canonical/organization-service/internal/types"
)

type ServiceInterface interface {
	Issue(ctx context.Context, actorID, organizationID, email, roleID string) (*types.Invitation, error)
	Validate(ctx context.Context, token string) (*types.Invitation, error)
	Accept(ctx context.Context, token, userID string) (*types.Membership, error)
	Cancel(ctx context.Context, actorID, organizationID, invitationID string) error
	List(ctx context.Context, organizationID string) ([]*types.Invitation, error)
	ExpireStale(ctx context.Context) (int64, error)
}

type StorageInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
	GetRole(ctx context.Context, id string) (*types.Role, error)
	CreateInvitation(ctx context.Context, inv *types.Invitation) (*types.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*types.Invitation, error)
	GetInvitation(ctx context.Context, organizationID, id string) (*types.Invitation, error)
	GetInvitationByEmail(ctx context.Context, organizationID, email string) (*types.Invitation, error)
	ListInvitations(ctx context.Context, organizationID string) ([]*types.Invitation, error)
	ExpireInvitation(ctx context.Context, id string, now time.Time) (bool, error)
	ExpireStaleInvitations(ctx context.Context, now time.Time) (int64, error)
	MarkInvitationAccepted(ctx context.Context, id, userID string, now time.Time) (bool, error)
	SoftDeleteInvitation(ctx context.Context, id string, now time.Time) error
	GetMembership(ctx context.Context, organizationID, userID string) (*types.Membership, error)
	CreateMembership(ctx context.Context, organizationID, userID, roleID string) (*types.Membership, error)
	UpdateMembership(ctx context.Context, id string, upd types.MembershipUpdate, now time.Time) error
}

// UsersInterface provisions local users for authenticated subjects.
type UsersInterface interface {
	EnsureUser(ctx context.Context, userID string) (*types.User, error)
}

// AuthorizerInterface keeps inviters from handing out roles above their own.
type AuthorizerInterface interface {
	CanGrantRole(ctx context.Context, actorID, organizationID, roleID string) error
}

type AuditInterface interface {
	Record(ctx context.Context, entry *types.AuditLog) error
}
