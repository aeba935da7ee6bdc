// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"context"

	"github.com/canonical/organization-service/internal/types"
)

// PermissionFetcherInterface resolves the caller's permissions in an organization.
type PermissionFetcherInterface interface {
	MyPermissions(ctx context.Context, orgID string) (types.PermissionSet, error)
}
