// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"context"
	"time"

	"github.com/canonical/organization-service/internal/types"
)

type ServiceInterface interface {
	EnsureUser(ctx context.Context, userID string) (*types.User, error)
	Register(ctx context.Context, user *types.User) (*types.User, error)
	MyOrganizations(ctx context.Context, userID string) ([]*types.Organization, error)
	DeleteUser(ctx context.Context, actorID, userID string) error
}

type StorageInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUser(ctx context.Context, id string) (*types.User, error)
	SoftDeleteUser(ctx context.Context, id string, now time.Time) error
	SoftDeleteMembershipsByUser(ctx context.Context, userID string, now time.Time) (int64, error)
	ClearInvitationInviter(ctx context.Context, userID string, now time.Time) (int64, error)
	ListOrganizationsByUser(ctx context.Context, userID string) ([]*types.Organization, error)
}

type KratosClientInterface interface {
	GetIdentity(ctx context.Context, id string) (*types.User, error)
}

type AuditInterface interface {
	Record(ctx context.Context, entry *types.AuditLog) error
}
