// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrDuplicateKey        = errors.New("duplicate key violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrCheckViolation      = errors.New("check constraint violation")
	// ErrImmutable is raised by the audit log trigger on UPDATE or DELETE.
	ErrImmutable = errors.New("row is immutable")
)

// SQLSTATE codes mapped to the sentinels above.
var pgErrorSentinels = map[string]error{
	"23505": ErrDuplicateKey,
	"23503": ErrForeignKeyViolation,
	"23001": ErrForeignKeyViolation, // restrict_violation
	"23514": ErrCheckViolation,
	"P0001": ErrImmutable, // raise_exception
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// wrapWriteError maps postgres constraint violations to the storage sentinels;
// what names the failed operation.
func wrapWriteError(err error, what string) error {
	if sentinel, ok := pgErrorSentinels[pgCode(err)]; ok {
		var pgErr *pgconn.PgError
		errors.As(err, &pgErr)
		if pgErr.ConstraintName != "" {
			return fmt.Errorf("failed to %s (%s): %w", what, pgErr.ConstraintName, sentinel)
		}
		return fmt.Errorf("failed to %s: %w", what, sentinel)
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}
