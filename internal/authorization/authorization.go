// Copyright 2025 Canonical Ltd
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"fmt"
	"strings"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/types"
)

var _ AuthorizerInterface = (*Authorizer)(nil)

// Authorizer resolves permissions from organization memberships.
type Authorizer struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *Authorizer) ResolvePermissions(ctx context.Context, userID, organizationID string) (types.PermissionSet, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.ResolvePermissions")
	defer span.End()

	if userID == "" || organizationID == "" {
		return types.PermissionSet{}, nil
	}

	keys, err := a.storage.ListPermissionKeysForMember(ctx, userID, organizationID)
	if err != nil {
		return types.PermissionSet{}, fmt.Errorf("failed to resolve permissions: %w", err)
	}

	return types.NewPermissionSet(keys...), nil
}

func (a *Authorizer) Check(ctx context.Context, userID, organizationID, key string) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.Check")
	defer span.End()

	permissions, err := a.ResolvePermissions(ctx, userID, organizationID)
	if err != nil {
		return false, err
	}

	return permissions.Has(key), nil
}

func (a *Authorizer) IsPlatformAdmin(ctx context.Context, userID string) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.IsPlatformAdmin")
	defer span.End()

	if userID == "" {
		return false, nil
	}

	isAdmin, err := a.storage.IsPlatformAdmin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check platform admin: %w", err)
	}

	return isAdmin, nil
}

// CanGrantRole rejects a role carrying any permission the actor does not hold
// in the organization.
func (a *Authorizer) CanGrantRole(ctx context.Context, actorID, organizationID, roleID string) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.CanGrantRole")
	defer span.End()

	granted, err := a.storage.ListPermissionsByRole(ctx, roleID)
	if err != nil {
		return fmt.Errorf("failed to list role permissions: %w", err)
	}

	held, err := a.ResolvePermissions(ctx, actorID, organizationID)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(granted))
	for _, p := range granted {
		keys = append(keys, p.Key)
	}

	if missing := held.Missing(keys...); len(missing) > 0 {
		a.logger.Security().AuthzFailure(actorID, fmt.Sprintf("%s:grant:%s", organizationID, roleID))
		return fmt.Errorf("%w: missing %s", types.ErrRoleEscalation, strings.Join(missing, ", "))
	}

	return nil
}

func NewAuthorizer(storage StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Authorizer {
	authorizer := new(Authorizer)
	authorizer.storage = storage
	authorizer.tracer = tracer
	authorizer.monitor = monitor
	authorizer.logger = logger

	return authorizer
}
