// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"

	"github.com/ory/hydra/v2/oauth2"

	"github.com/canonical/organization-service/internal/types"
)

// StorageInterface defines the storage operations required by the webhooks package.
// It is a subset of the internal/storage interface.
type StorageInterface interface {
	ListOrganizationsByUser(ctx context.Context, userID string) ([]*types.Organization, error)
}

// UsersInterface creates local users from identities.
type UsersInterface interface {
	Register(ctx context.Context, user *types.User) (*types.User, error)
}

// InvitationsInterface accepts the invitation a user signed up with.
type InvitationsInterface interface {
	Accept(ctx context.Context, token, userID string) (*types.Membership, error)
}

// ServiceInterface defines the webhook service operations.
type ServiceInterface interface {
	HandleRegistration(ctx context.Context, identity KratosIdentity) error
	HandleTokenHook(ctx context.Context, req *oauth2.TokenHookRequest) (*TokenHookResponse, error)
}
