// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/organization-service/internal/db"
	"github.com/canonical/organization-service/internal/types"
)

func (s *Storage) membershipSelect(ctx context.Context) sq.SelectBuilder {
	return s.db.Statement(ctx).
		Select(
			"m.id", "m.organization_id", "m.user_id", "m.role_id", "r.name",
			"m.is_active", "u.email", "u.name", "m.created_at", "m.updated_at", "m.deleted_at",
		).
		From("organization_members m").
		Join("roles r ON r.id = m.role_id").
		Join("users u ON u.id = m.user_id")
}

func scanMembership(row rowScanner) (*types.Membership, error) {
	var m types.Membership
	err := row.Scan(
		&m.ID, &m.OrganizationID, &m.UserID, &m.RoleID, &m.RoleName,
		&m.IsActive, &m.Email, &m.Name, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMembership returns the non-deleted membership of a user in an
// organization, active or not.
func (s *Storage) GetMembership(ctx context.Context, organizationID, userID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetMembership")
	defer span.End()

	if !validUUID(organizationID, userID) {
		return nil, ErrNotFound
	}

	m, err := scanMembership(
		s.membershipSelect(ctx).
			Where(sq.Eq{"m.organization_id": organizationID, "m.user_id": userID}).
			Where(notDeleted("m")).
			QueryRowContext(ctx),
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return m, nil
}

// ListMembers lists the non-deleted memberships of an organization, active or not.
func (s *Storage) ListMembers(ctx context.Context, organizationID string) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListMembers")
	defer span.End()

	members := make([]*types.Membership, 0)
	if !validUUID(organizationID) {
		return members, nil
	}

	rows, err := s.membershipSelect(ctx).
		Where(sq.Eq{"m.organization_id": organizationID}).
		Where(notDeleted("m")).
		Where(notDeleted("u")).
		OrderBy("m.created_at ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return members, nil
}

func (s *Storage) CreateMembership(ctx context.Context, organizationID, userID, roleID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateMembership")
	defer span.End()

	if !validUUID(organizationID, userID, roleID) {
		return nil, ErrForeignKeyViolation
	}

	id, err := newID("membership")
	if err != nil {
		return nil, err
	}

	_, err = s.db.Statement(ctx).
		Insert("organization_members").
		Columns("id", "organization_id", "user_id", "role_id", "is_active").
		Values(id, organizationID, userID, roleID, true).
		ExecContext(ctx)
	if err != nil {
		return nil, wrapWriteError(err, "insert membership")
	}

	return s.GetMembership(ctx, organizationID, userID)
}

// UpdateMembership applies the non-nil fields of upd to a non-deleted membership.
func (s *Storage) UpdateMembership(ctx context.Context, id string, upd types.MembershipUpdate, now time.Time) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateMembership")
	defer span.End()

	if !validUUID(id) {
		return ErrNotFound
	}

	updateMap := map[string]interface{}{"updated_at": now}
	if upd.RoleID != nil {
		if !validUUID(*upd.RoleID) {
			return ErrForeignKeyViolation
		}
		updateMap["role_id"] = *upd.RoleID
	}
	if upd.IsActive != nil {
		updateMap["is_active"] = *upd.IsActive
	}

	res, err := s.db.Statement(ctx).
		Update("organization_members").
		SetMap(updateMap).
		Where(sq.Eq{"id": id}).
		Where(notDeleted("")).
		ExecContext(ctx)
	if err != nil {
		return wrapWriteError(err, "update membership")
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

func (s *Storage) SoftDeleteMembership(ctx context.Context, id string, now time.Time) error {
	ctx, span := s.tracer.Start(ctx, "storage.SoftDeleteMembership")
	defer span.End()

	if !validUUID(id) {
		return ErrNotFound
	}

	res, err := s.db.Statement(ctx).
		Update("organization_members").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).
		Where(notDeleted("")).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
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

func (s *Storage) SoftDeleteMembershipsByOrganization(ctx context.Context, organizationID string, now time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.SoftDeleteMembershipsByOrganization")
	defer span.End()

	return s.softDeleteMemberships(ctx, sq.Eq{"organization_id": organizationID}, now)
}

func (s *Storage) SoftDeleteMembershipsByUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.SoftDeleteMembershipsByUser")
	defer span.End()

	return s.softDeleteMemberships(ctx, sq.Eq{"user_id": userID}, now)
}

func (s *Storage) softDeleteMemberships(ctx context.Context, where sq.Eq, now time.Time) (int64, error) {
	res, err := s.db.Statement(ctx).
		Update("organization_members").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(where).
		Where(notDeleted("")).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memberships: %w", err)
	}

	return rowsAffected(res)
}

// CountActiveMembersWithRole counts active, non-deleted memberships of
// non-deleted users holding the named role. Inside a transaction it first
// takes the organization's membership lock, so concurrent owner changes in
// one organization see each other's writes.
func (s *Storage) CountActiveMembersWithRole(ctx context.Context, organizationID, roleName string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountActiveMembersWithRole")
	defer span.End()

	if db.InTx(ctx) {
		if err := s.db.AdvisoryLock(ctx, "organization-members:"+organizationID); err != nil {
			return 0, err
		}
	}

	var count int
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("organization_members m").
		Join("roles r ON r.id = m.role_id").
		Join("users u ON u.id = m.user_id").
		Where(sq.Eq{"m.organization_id": organizationID, "m.is_active": true, "r.name": roleName}).
		Where(notDeleted("m")).
		Where(notDeleted("u")).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}

	return count, nil
}

// ListPermissionKeysForMember returns the permission keys granted through an
// active, non-deleted membership of a non-deleted user in a non-deleted
// organization. Any other case yields an empty list.
func (s *Storage) ListPermissionKeysForMember(ctx context.Context, userID, organizationID string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListPermissionKeysForMember")
	defer span.End()

	keys := make([]string, 0)
	if !validUUID(userID, organizationID) {
		return keys, nil
	}

	rows, err := s.db.Statement(ctx).
		Select("p.key").
		From("organization_members m").
		Join("organizations o ON o.id = m.organization_id").
		Join("users u ON u.id = m.user_id").
		Join("role_permissions rp ON rp.role_id = m.role_id").
		Join("permissions p ON p.id = rp.permission_id").
		Where(sq.Eq{"m.user_id": userID, "m.organization_id": organizationID, "m.is_active": true}).
		Where(notDeleted("m")).
		Where(notDeleted("o")).
		Where(notDeleted("u")).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve permissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan permission key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return keys, nil
}
