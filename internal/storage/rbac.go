// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/organization-service/internal/types"
)

var (
	roleColumns       = []string{"id", "name", "description", "created_at", "updated_at"}
	permissionColumns = []string{"id", "key", "category", "description", "created_at"}
)

func scanRole(row rowScanner) (*types.Role, error) {
	var r types.Role
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanPermission(row rowScanner) (*types.Permission, error) {
	var p types.Permission
	if err := row.Scan(&p.ID, &p.Key, &p.Category, &p.Description, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) ListRoles(ctx context.Context) ([]*types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListRoles")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(roleColumns...).
		From("roles").
		OrderBy("name ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]*types.Role, 0)
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return roles, nil
}

func (s *Storage) GetRole(ctx context.Context, id string) (*types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetRole")
	defer span.End()

	if !validUUID(id) {
		return nil, ErrNotFound
	}

	return s.getRole(ctx, sq.Eq{"id": id})
}

func (s *Storage) GetRoleByName(ctx context.Context, name string) (*types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetRoleByName")
	defer span.End()

	return s.getRole(ctx, sq.Eq{"name": name})
}

func (s *Storage) getRole(ctx context.Context, where sq.Eq) (*types.Role, error) {
	r, err := scanRole(
		s.db.Statement(ctx).
			Select(roleColumns...).
			From("roles").
			Where(where).
			QueryRowContext(ctx),
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return r, nil
}

func (s *Storage) CreateRole(ctx context.Context, name, description string) (*types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateRole")
	defer span.End()

	id, err := newID("role")
	if err != nil {
		return nil, err
	}

	r, err := scanRole(
		s.db.Statement(ctx).
			Insert("roles").
			Columns("id", "name", "description").
			Values(id, name, description).
			Suffix("RETURNING " + strings.Join(roleColumns, ", ")).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, wrapWriteError(err, "insert role")
	}

	return r, nil
}

// UpsertRole creates the role or refreshes its description when the name exists.
func (s *Storage) UpsertRole(ctx context.Context, name, description string) (*types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertRole")
	defer span.End()

	id, err := newID("role")
	if err != nil {
		return nil, err
	}

	r, err := scanRole(
		s.db.Statement(ctx).
			Insert("roles").
			Columns("id", "name", "description").
			Values(id, name, description).
			Suffix("ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, updated_at = NOW() RETURNING " + strings.Join(roleColumns, ", ")).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, wrapWriteError(err, "upsert role")
	}

	return r, nil
}

func (s *Storage) UpdateRole(ctx context.Context, id string, name, description *string, now time.Time) (*types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateRole")
	defer span.End()

	if !validUUID(id) {
		return nil, ErrNotFound
	}

	updateMap := map[string]interface{}{"updated_at": now}
	if name != nil {
		updateMap["name"] = *name
	}
	if description != nil {
		updateMap["description"] = *description
	}

	r, err := scanRole(
		s.db.Statement(ctx).
			Update("roles").
			SetMap(updateMap).
			Where(sq.Eq{"id": id}).
			Suffix("RETURNING " + strings.Join(roleColumns, ", ")).
			QueryRowContext(ctx),
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, wrapWriteError(err, "update role")
	}

	return r, nil
}

// DeleteRole fails with ErrForeignKeyViolation while memberships or
// invitations still reference the role.
func (s *Storage) DeleteRole(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteRole")
	defer span.End()

	if !validUUID(id) {
		return ErrNotFound
	}

	res, err := s.db.Statement(ctx).
		Delete("roles").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return wrapWriteError(err, "delete role")
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) ListPermissions(ctx context.Context) ([]*types.Permission, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListPermissions")
	defer span.End()

	return s.listPermissions(ctx, s.db.Statement(ctx).
		Select(permissionColumns...).
		From("permissions").
		OrderBy("category ASC", "key ASC"))
}

// ListPermissionsByIDs returns the permissions among ids that exist.
func (s *Storage) ListPermissionsByIDs(ctx context.Context, ids []string) ([]*types.Permission, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListPermissionsByIDs")
	defer span.End()

	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return make([]*types.Permission, 0), nil
	}

	return s.listPermissions(ctx, s.db.Statement(ctx).
		Select(permissionColumns...).
		From("permissions").
		Where(sq.Eq{"id": valid}).
		OrderBy("key ASC"))
}

func (s *Storage) ListPermissionsByRole(ctx context.Context, roleID string) ([]*types.Permission, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListPermissionsByRole")
	defer span.End()

	if !validUUID(roleID) {
		return make([]*types.Permission, 0), nil
	}

	return s.listPermissions(ctx, s.db.Statement(ctx).
		Select(prefixed("p", permissionColumns)...).
		From("permissions p").
		Join("role_permissions rp ON rp.permission_id = p.id").
		Where(sq.Eq{"rp.role_id": roleID}).
		OrderBy("p.key ASC"))
}

func (s *Storage) listPermissions(ctx context.Context, query sq.SelectBuilder) ([]*types.Permission, error) {
	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	permissions := make([]*types.Permission, 0)
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permissions = append(permissions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return permissions, nil
}

func (s *Storage) CreatePermission(ctx context.Context, key, category, description string) (*types.Permission, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreatePermission")
	defer span.End()

	id, err := newID("permission")
	if err != nil {
		return nil, err
	}

	p, err := scanPermission(
		s.db.Statement(ctx).
			Insert("permissions").
			Columns("id", "key", "category", "description").
			Values(id, key, category, description).
			Suffix("RETURNING " + strings.Join(permissionColumns, ", ")).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, wrapWriteError(err, "insert permission")
	}

	return p, nil
}

// UpsertPermission creates the permission or refreshes its metadata when the key exists.
func (s *Storage) UpsertPermission(ctx context.Context, key, category, description string) (*types.Permission, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertPermission")
	defer span.End()

	id, err := newID("permission")
	if err != nil {
		return nil, err
	}

	p, err := scanPermission(
		s.db.Statement(ctx).
			Insert("permissions").
			Columns("id", "key", "category", "description").
			Values(id, key, category, description).
			Suffix("ON CONFLICT (key) DO UPDATE SET category = EXCLUDED.category, description = EXCLUDED.description RETURNING " + strings.Join(permissionColumns, ", ")).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, wrapWriteError(err, "upsert permission")
	}

	return p, nil
}

func (s *Storage) AddRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	ctx, span := s.tracer.Start(ctx, "storage.AddRolePermissions")
	defer span.End()

	if len(permissionIDs) == 0 {
		return nil
	}

	query := s.db.Statement(ctx).
		Insert("role_permissions").
		Columns("role_id", "permission_id")
	for _, id := range permissionIDs {
		query = query.Values(roleID, id)
	}

	if _, err := query.Suffix("ON CONFLICT DO NOTHING").ExecContext(ctx); err != nil {
		return wrapWriteError(err, "insert role permissions")
	}

	return nil
}

func (s *Storage) RemoveRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoveRolePermissions")
	defer span.End()

	if len(permissionIDs) == 0 {
		return nil
	}

	_, err := s.db.Statement(ctx).
		Delete("role_permissions").
		Where(sq.Eq{"role_id": roleID, "permission_id": permissionIDs}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete role permissions: %w", err)
	}

	return nil
}
