// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/canonical/organization-service/internal/db"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
)

var _ StorageInterface = (*Storage)(nil)

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

// WithTx runs fn in a transaction; statements issued with the context passed
// to fn share it. Nested calls join the outer transaction.
func (s *Storage) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return s.db.WithTx(ctx, fn)
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

func newID(entity string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate %s ID: %w", entity, err)
	}
	return id.String(), nil
}

// validUUID guards queries against malformed ids, which postgres would
// reject with a cast error instead of returning no rows.
func validUUID(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return n, nil
}

func marshalDetails(details map[string]interface{}) (string, error) {
	if details == nil {
		return "{}", nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("failed to encode details: %w", err)
	}
	return string(b), nil
}

func notDeleted(alias string) sq.Eq {
	if alias == "" {
		return sq.Eq{"deleted_at": nil}
	}
	return sq.Eq{alias + ".deleted_at": nil}
}
