// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/organization-service/internal/db"
	"github.com/canonical/organization-service/internal/types"
)

// CreateAuditLog appends an entry. Rows are never updated nor deleted.
func (s *Storage) CreateAuditLog(ctx context.Context, entry *types.AuditLog) error {
	ctx, span := s.tracer.Start(ctx, "storage.CreateAuditLog")
	defer span.End()

	id, err := newID("audit log")
	if err != nil {
		return err
	}

	details, err := marshalDetails(entry.Details)
	if err != nil {
		return err
	}

	_, err = s.db.Statement(ctx).
		Insert("audit_logs").
		Columns("id", "actor_id", "organization_id", "action", "entity_type", "entity_id", "details").
		Values(id, entry.ActorID, entry.OrganizationID, entry.Action, entry.EntityType, entry.EntityID, details).
		ExecContext(ctx)
	if err != nil {
		return wrapWriteError(err, "insert audit log")
	}

	entry.ID = id

	return nil
}

// ListAuditLogs lists entries newest first.
func (s *Storage) ListAuditLogs(ctx context.Context, filter types.AuditFilter) ([]*types.AuditLog, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListAuditLogs")
	defer span.End()

	pageSize := db.PageSize(filter.Size)

	query := s.db.Statement(ctx).
		Select("id", "actor_id", "organization_id", "action", "entity_type", "entity_id", "details", "created_at").
		From("audit_logs").
		OrderBy("created_at DESC", "id DESC").
		Limit(pageSize).
		Offset(db.Offset(filter.Page, pageSize))

	if filter.OrganizationID != nil {
		if !validUUID(*filter.OrganizationID) {
			return make([]*types.AuditLog, 0), nil
		}
		query = query.Where(sq.Eq{"organization_id": *filter.OrganizationID})
	}

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*types.AuditLog, 0)
	for rows.Next() {
		var (
			l       types.AuditLog
			details []byte
		)
		if err := rows.Scan(&l.ID, &l.ActorID, &l.OrganizationID, &l.Action, &l.EntityType, &l.EntityID, &details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &l.Details); err != nil {
				return nil, fmt.Errorf("failed to decode audit log details: %w", err)
			}
		}
		logs = append(logs, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return logs, nil
}
