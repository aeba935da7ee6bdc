// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/storage"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/types"
	"github.com/canonical/organization-service/pkg/audit"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface
	audit   AuditInterface
	now     func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *Service) ListRoles(ctx context.Context) ([]*types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.ListRoles")
	defer span.End()

	return s.storage.ListRoles(ctx)
}

func (s *Service) GetRole(ctx context.Context, roleID string) (*types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.GetRole")
	defer span.End()

	role, err := s.storage.GetRole(ctx, roleID)
	if err != nil {
		return nil, roleError(err)
	}

	return role, nil
}

func (s *Service) CreateRole(ctx context.Context, actorID, name, description string) (*types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.CreateRole")
	defer span.End()

	var role *types.Role
	err := s.storage.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if role, err = s.storage.CreateRole(ctx, name, description); err != nil {
			return err
		}

		return s.audit.Record(ctx, audit.Entry(actorID, "", audit.ActionRoleCreated, audit.EntityRole, role.ID, map[string]interface{}{"name": name}))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create role %q: %w", name, err)
	}

	s.logger.Security().AdminAction(actorID, audit.ActionRoleCreated, audit.EntityRole, role.ID)

	return role, nil
}

func (s *Service) UpdateRole(ctx context.Context, actorID, roleID string, name, description *string) (*types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.UpdateRole")
	defer span.End()

	if name == nil && description == nil {
		return nil, fmt.Errorf("%w: nothing to update", types.ErrValidation)
	}

	var role *types.Role
	err := s.storage.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if role, err = s.storage.UpdateRole(ctx, roleID, name, description, s.now()); err != nil {
			return roleError(err)
		}

		return s.audit.Record(ctx, audit.Entry(actorID, "", audit.ActionRoleUpdated, audit.EntityRole, roleID, map[string]interface{}{"name": role.Name}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Security().AdminAction(actorID, audit.ActionRoleUpdated, audit.EntityRole, roleID)

	return role, nil
}

// DeleteRole removes a role that no membership or invitation references.
func (s *Service) DeleteRole(ctx context.Context, actorID, roleID string) error {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.DeleteRole")
	defer span.End()

	err := s.storage.WithTx(ctx, func(ctx context.Context) error {
		if err := s.storage.DeleteRole(ctx, roleID); err != nil {
			return roleError(err)
		}

		return s.audit.Record(ctx, audit.Entry(actorID, "", audit.ActionRoleDeleted, audit.EntityRole, roleID, nil))
	})
	if err != nil {
		return err
	}

	s.logger.Security().AdminAction(actorID, audit.ActionRoleDeleted, audit.EntityRole, roleID)

	return nil
}

func (s *Service) ListPermissions(ctx context.Context) ([]*types.Permission, error) {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.ListPermissions")
	defer span.End()

	return s.storage.ListPermissions(ctx)
}

func (s *Service) CreatePermission(ctx context.Context, actorID, key, category, description string) (*types.Permission, error) {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.CreatePermission")
	defer span.End()

	var permission *types.Permission
	err := s.storage.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if permission, err = s.storage.CreatePermission(ctx, key, category, description); err != nil {
			return err
		}

		return s.audit.Record(ctx, audit.Entry(actorID, "", audit.ActionPermissionCreated, audit.EntityPermission, permission.ID, map[string]interface{}{"key": key}))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create permission %q: %w", key, err)
	}

	s.logger.Security().AdminAction(actorID, audit.ActionPermissionCreated, audit.EntityPermission, permission.ID)

	return permission, nil
}

func (s *Service) GetPermissionsForRole(ctx context.Context, roleID string) ([]*types.Permission, error) {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.GetPermissionsForRole")
	defer span.End()

	if _, err := s.storage.GetRole(ctx, roleID); err != nil {
		return nil, roleError(err)
	}

	return s.storage.ListPermissionsByRole(ctx, roleID)
}

// SetRolePermissions replaces the permission set of a role. Unknown ids fail
// the whole call and leave the current set untouched.
func (s *Service) SetRolePermissions(ctx context.Context, actorID, roleID string, permissionIDs []string) ([]*types.Permission, error) {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.SetRolePermissions")
	defer span.End()

	wanted := make(map[string]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		if _, err := uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: invalid permission id %q", types.ErrValidation, id)
		}
		wanted[id] = struct{}{}
	}

	ids := make([]string, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result []*types.Permission
	err := s.storage.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.storage.GetRole(ctx, roleID); err != nil {
			return roleError(err)
		}

		known, err := s.storage.ListPermissionsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(known) != len(ids) {
			return fmt.Errorf("%w: unknown permission ids", types.ErrValidation)
		}

		current, err := s.storage.ListPermissionsByRole(ctx, roleID)
		if err != nil {
			return err
		}

		toAdd, toRemove := diff(current, wanted)

		if err := s.storage.RemoveRolePermissions(ctx, roleID, toRemove); err != nil {
			return err
		}
		if err := s.storage.AddRolePermissions(ctx, roleID, toAdd); err != nil {
			return err
		}

		details := map[string]interface{}{"added": toAdd, "removed": toRemove}
		if err := s.audit.Record(ctx, audit.Entry(actorID, "", audit.ActionRolePermissionsUpdated, audit.EntityRole, roleID, details)); err != nil {
			return err
		}

		result = known
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Security().AdminAction(actorID, audit.ActionRolePermissionsUpdated, audit.EntityRole, roleID)

	return result, nil
}

// diff returns the ids missing from current and the ids of current not wanted.
func diff(current []*types.Permission, wanted map[string]struct{}) ([]string, []string) {
	have := make(map[string]struct{}, len(current))
	toRemove := make([]string, 0)

	for _, p := range current {
		have[p.ID] = struct{}{}
		if _, ok := wanted[p.ID]; !ok {
			toRemove = append(toRemove, p.ID)
		}
	}

	toAdd := make([]string, 0)
	for id := range wanted {
		if _, ok := have[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}

	sort.Strings(toAdd)
	sort.Strings(toRemove)

	return toAdd, toRemove
}

func roleError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return types.ErrRoleNotFound
	case errors.Is(err, storage.ErrForeignKeyViolation):
		return types.ErrRoleInUse
	}
	return err
}

func NewService(storage StorageInterface, audit AuditInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	s := new(Service)

	s.storage = storage
	s.audit = audit
	s.now = time.Now

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
