// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/organization-service/internal/db"
	"github.com/canonical/organization-service/internal/types"
)

var organizationColumns = []string{"id", "name", "slug", "status", "created_by", "created_at", "updated_at", "deleted_at"}

func prefixed(alias string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = alias + "." + c
	}
	return out
}

func scanOrganization(row rowScanner) (*types.Organization, error) {
	var o types.Organization
	if err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.Status, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt, &o.DeletedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Storage) CreateOrganization(ctx context.Context, o *types.Organization) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateOrganization")
	defer span.End()

	id, err := newID("organization")
	if err != nil {
		return nil, err
	}

	status := o.Status
	if status == "" {
		status = types.OrganizationActive
	}

	created, err := scanOrganization(
		s.db.Statement(ctx).
			Insert("organizations").
			Columns("id", "name", "slug", "status", "created_by").
			Values(id, o.Name, o.Slug, string(status), o.CreatedBy).
			Suffix("RETURNING " + strings.Join(organizationColumns, ", ")).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, wrapWriteError(err, "insert organization")
	}

	return created, nil
}

func (s *Storage) GetOrganization(ctx context.Context, id string) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetOrganization")
	defer span.End()

	if !validUUID(id) {
		return nil, ErrNotFound
	}

	o, err := scanOrganization(
		s.db.Statement(ctx).
			Select(organizationColumns...).
			From("organizations").
			Where(sq.Eq{"id": id}).
			Where(notDeleted("")).
			QueryRowContext(ctx),
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return o, nil
}

// ListOrganizations lists every non-deleted organization, oldest first.
func (s *Storage) ListOrganizations(ctx context.Context, page, size int64) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListOrganizations")
	defer span.End()

	pageSize := db.PageSize(size)

	rows, err := s.db.Statement(ctx).
		Select(organizationColumns...).
		From("organizations").
		Where(notDeleted("")).
		OrderBy("created_at ASC", "id ASC").
		Limit(pageSize).
		Offset(db.Offset(page, pageSize)).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	organizations := make([]*types.Organization, 0)
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		organizations = append(organizations, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organization rows: %w", err)
	}

	return organizations, nil
}

// ListOrganizationsByUser lists the organizations where the user holds an
// active, non-deleted membership.
func (s *Storage) ListOrganizationsByUser(ctx context.Context, userID string) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListOrganizationsByUser")
	defer span.End()

	organizations := make([]*types.Organization, 0)
	if !validUUID(userID) {
		return organizations, nil
	}

	rows, err := s.db.Statement(ctx).
		Select(prefixed("o", organizationColumns)...).
		From("organizations o").
		Join("organization_members m ON m.organization_id = o.id").
		Where(sq.Eq{"m.user_id": userID, "m.is_active": true}).
		Where(notDeleted("m")).
		Where(notDeleted("o")).
		OrderBy("o.name ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations for user: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		organizations = append(organizations, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return organizations, nil
}

// UpdateOrganization applies the non-nil fields of upd.
func (s *Storage) UpdateOrganization(ctx context.Context, id string, upd types.OrganizationUpdate, now time.Time) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateOrganization")
	defer span.End()

	if !validUUID(id) {
		return nil, ErrNotFound
	}

	updateMap := map[string]interface{}{"updated_at": now}
	if upd.Name != nil {
		updateMap["name"] = *upd.Name
	}
	if upd.Status != nil {
		updateMap["status"] = string(*upd.Status)
	}

	o, err := scanOrganization(
		s.db.Statement(ctx).
			Update("organizations").
			SetMap(updateMap).
			Where(sq.Eq{"id": id}).
			Where(notDeleted("")).
			Suffix("RETURNING " + strings.Join(organizationColumns, ", ")).
			QueryRowContext(ctx),
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, wrapWriteError(err, "update organization")
	}

	return o, nil
}

func (s *Storage) SoftDeleteOrganization(ctx context.Context, id string, now time.Time) error {
	ctx, span := s.tracer.Start(ctx, "storage.SoftDeleteOrganization")
	defer span.End()

	if !validUUID(id) {
		return ErrNotFound
	}

	res, err := s.db.Statement(ctx).
		Update("organizations").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).
		Where(notDeleted("")).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
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
