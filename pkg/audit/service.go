// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"
	"fmt"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

// Service appends to and reads the audit log. Record must be called with
// the context of the mutation it describes so both share one transaction.
type Service struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *Service) Record(ctx context.Context, entry *types.AuditLog) error {
	ctx, span := s.tracer.Start(ctx, "audit.Service.Record")
	defer span.End()

	if entry == nil || entry.Action == "" || entry.EntityType == "" || entry.EntityID == "" {
		return fmt.Errorf("%w: audit entry needs action, entity type and entity id", types.ErrValidation)
	}

	if err := s.storage.CreateAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("failed to record %s: %w", entry.Action, err)
	}

	return nil
}

func (s *Service) List(ctx context.Context, filter types.AuditFilter) ([]*types.AuditLog, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Service.List")
	defer span.End()

	logs, err := s.storage.ListAuditLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return logs, nil
}

func NewService(storage StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	s := new(Service)

	s.storage = storage

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}

// Entry builds an audit entry; empty actor and organization ids are stored as null.
func Entry(actorID, organizationID, action, entityType, entityID string, details map[string]interface{}) *types.AuditLog {
	e := &types.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}

	if actorID != "" {
		e.ActorID = &actorID
	}

	if organizationID != "" {
		e.OrganizationID = &organizationID
	}

	return e
}
