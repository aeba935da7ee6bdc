// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"

	"github.com/canonical/organization-service/internal/types"
)

type ServiceInterface interface {
	Record(ctx context.Context, entry *types.AuditLog) error
	List(ctx context.Context, filter types.AuditFilter) ([]*types.AuditLog, error)
}

type StorageInterface interface {
	CreateAuditLog(ctx context.Context, entry *types.AuditLog) error
	ListAuditLogs(ctx context.Context, filter types.AuditFilter) ([]*types.AuditLog, error)
}
