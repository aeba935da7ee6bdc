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

var userColumns = []string{"id", "email", "name", "is_admin", "created_at", "updated_at", "deleted_at"}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*types.User, error) {
	var u types.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user; the id must be the identity subject.
func (s *Storage) CreateUser(ctx context.Context, u *types.User) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateUser")
	defer span.End()

	if !validUUID(u.ID) {
		return nil, fmt.Errorf("invalid user id %q", u.ID)
	}

	created, err := scanUser(
		s.db.Statement(ctx).
			Insert("users").
			Columns("id", "email", "name", "is_admin").
			Values(u.ID, strings.TrimSpace(u.Email), u.Name, u.IsAdmin).
			Suffix("RETURNING " + strings.Join(userColumns, ", ")).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, wrapWriteError(err, "insert user")
	}

	return created, nil
}

func (s *Storage) GetUser(ctx context.Context, id string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUser")
	defer span.End()

	if !validUUID(id) {
		return nil, ErrNotFound
	}

	u, err := scanUser(
		s.db.Statement(ctx).
			Select(userColumns...).
			From("users").
			Where(sq.Eq{"id": id}).
			Where(notDeleted("")).
			QueryRowContext(ctx),
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserByEmail")
	defer span.End()

	u, err := scanUser(
		s.db.Statement(ctx).
			Select(userColumns...).
			From("users").
			Where("lower(email) = lower(?)", strings.TrimSpace(email)).
			Where(notDeleted("")).
			QueryRowContext(ctx),
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return u, nil
}

// IsPlatformAdmin is false for unknown, malformed or deleted users.
func (s *Storage) IsPlatformAdmin(ctx context.Context, userID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.IsPlatformAdmin")
	defer span.End()

	if !validUUID(userID) {
		return false, nil
	}

	var isAdmin bool
	err := s.db.Statement(ctx).
		Select("is_admin").
		From("users").
		Where(sq.Eq{"id": userID}).
		Where(notDeleted("")).
		QueryRowContext(ctx).
		Scan(&isAdmin)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check platform admin: %w", err)
	}

	return isAdmin, nil
}

func (s *Storage) SoftDeleteUser(ctx context.Context, id string, now time.Time) error {
	ctx, span := s.tracer.Start(ctx, "storage.SoftDeleteUser")
	defer span.End()

	if !validUUID(id) {
		return ErrNotFound
	}

	res, err := s.db.Statement(ctx).
		Update("users").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).
		Where(notDeleted("")).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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
