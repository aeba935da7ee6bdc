// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/organization-service/internal/identity"
	"github.com/canonical/organization-service/internal/types"
)

const (
	OrganizationHeader = identity.OrganizationHeaderName
	// OrganizationIDParam is the chi route parameter naming the organization
	OrganizationIDParam = "organization_id"
)

type permissionsContextKey struct{}

// OrganizationIDFromRequest reads the organization from the route, falling
// back to the organization header.
func OrganizationIDFromRequest(r *http.Request) string {
	if id := chi.URLParam(r, OrganizationIDParam); id != "" {
		return id
	}

	return strings.TrimSpace(r.Header.Get(OrganizationHeader))
}

// WithPermissions stores the permissions resolved for the current request.
func WithPermissions(ctx context.Context, permissions types.PermissionSet) context.Context {
	return context.WithValue(ctx, permissionsContextKey{}, permissions)
}

// PermissionsFromContext returns the permissions resolved for the current
// request, or the empty set.
func PermissionsFromContext(ctx context.Context) types.PermissionSet {
	if ps, ok := ctx.Value(permissionsContextKey{}).(types.PermissionSet); ok {
		return ps
	}
	return types.PermissionSet{}
}
