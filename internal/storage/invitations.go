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

var invitationColumns = []string{
	"id", "organization_id", "email", "role_id", "token", "status", "expires_at",
	"invited_by", "accepted_by", "accepted_at", "created_at", "updated_at", "deleted_at",
}

func scanInvitation(row rowScanner) (*types.Invitation, error) {
	var i types.Invitation
	err := row.Scan(
		&i.ID, &i.OrganizationID, &i.Email, &i.RoleID, &i.Token, &i.Status, &i.ExpiresAt,
		&i.InvitedBy, &i.AcceptedBy, &i.AcceptedAt, &i.CreatedAt, &i.UpdatedAt, &i.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *Storage) CreateInvitation(ctx context.Context, inv *types.Invitation) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateInvitation")
	defer span.End()

	if !validUUID(inv.OrganizationID, inv.RoleID) {
		return nil, ErrForeignKeyViolation
	}

	id, err := newID("invitation")
	if err != nil {
		return nil, err
	}

	created, err := scanInvitation(
		s.db.Statement(ctx).
			Insert("invitations").
			Columns("id", "organization_id", "email", "role_id", "token", "status", "expires_at", "invited_by").
			Values(id, inv.OrganizationID, inv.Email, inv.RoleID, inv.Token, string(types.InvitationPending), inv.ExpiresAt, inv.InvitedBy).
			Suffix("RETURNING " + strings.Join(invitationColumns, ", ")).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, wrapWriteError(err, "insert invitation")
	}

	return created, nil
}

// GetInvitationByToken returns the newest non-deleted invitation carrying token.
func (s *Storage) GetInvitationByToken(ctx context.Context, token string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetInvitationByToken")
	defer span.End()

	return s.getInvitation(ctx, sq.Eq{"token": token})
}

func (s *Storage) GetInvitation(ctx context.Context, organizationID, id string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetInvitation")
	defer span.End()

	if !validUUID(organizationID, id) {
		return nil, ErrNotFound
	}

	return s.getInvitation(ctx, sq.Eq{"organization_id": organizationID, "id": id})
}

// GetInvitationByEmail returns the non-deleted invitation for an email in an
// organization, whatever its status.
func (s *Storage) GetInvitationByEmail(ctx context.Context, organizationID, email string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetInvitationByEmail")
	defer span.End()

	if !validUUID(organizationID) {
		return nil, ErrNotFound
	}

	return s.getInvitation(ctx, sq.And{
		sq.Eq{"organization_id": organizationID},
		sq.Expr("lower(email) = lower(?)", strings.TrimSpace(email)),
	})
}

func (s *Storage) getInvitation(ctx context.Context, where sq.Sqlizer) (*types.Invitation, error) {
	inv, err := scanInvitation(
		s.db.Statement(ctx).
			Select(invitationColumns...).
			From("invitations").
			Where(where).
			Where(notDeleted("")).
			OrderBy("created_at DESC").
			Limit(1).
			QueryRowContext(ctx),
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

func (s *Storage) ListInvitations(ctx context.Context, organizationID string) ([]*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListInvitations")
	defer span.End()

	invitations := make([]*types.Invitation, 0)
	if !validUUID(organizationID) {
		return invitations, nil
	}

	rows, err := s.db.Statement(ctx).
		Select(invitationColumns...).
		From("invitations").
		Where(sq.Eq{"organization_id": organizationID}).
		Where(notDeleted("")).
		OrderBy("created_at DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return invitations, nil
}

// ExpireInvitation flips a pending, overdue invitation to expired. It reports
// whether this call performed the transition.
func (s *Storage) ExpireInvitation(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ExpireInvitation")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("invitations").
		Set("status", string(types.InvitationExpired)).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "status": string(types.InvitationPending)}).
		Where(sq.LtOrEq{"expires_at": now}).
		Where(notDeleted("")).
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to expire invitation: %w", err)
	}

	n, err := rowsAffected(res)
	return n == 1, err
}

// ExpireStaleInvitations flips every pending, overdue invitation to expired.
func (s *Storage) ExpireStaleInvitations(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ExpireStaleInvitations")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("invitations").
		Set("status", string(types.InvitationExpired)).
		Set("updated_at", now).
		Where(sq.Eq{"status": string(types.InvitationPending)}).
		Where(sq.LtOrEq{"expires_at": now}).
		Where(notDeleted("")).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}

	return rowsAffected(res)
}

// MarkInvitationAccepted performs the pending -> accepted transition only if
// the invitation is still pending and unexpired at now. It reports whether
// this call won the transition.
func (s *Storage) MarkInvitationAccepted(ctx context.Context, id, userID string, now time.Time) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.MarkInvitationAccepted")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("invitations").
		Set("status", string(types.InvitationAccepted)).
		Set("accepted_by", userID).
		Set("accepted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "status": string(types.InvitationPending)}).
		Where(sq.Gt{"expires_at": now}).
		Where(notDeleted("")).
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to accept invitation: %w", err)
	}

	n, err := rowsAffected(res)
	return n == 1, err
}

func (s *Storage) SoftDeleteInvitation(ctx context.Context, id string, now time.Time) error {
	ctx, span := s.tracer.Start(ctx, "storage.SoftDeleteInvitation")
	defer span.End()

	if !validUUID(id) {
		return ErrNotFound
	}

	res, err := s.db.Statement(ctx).
		Update("invitations").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).
		Where(notDeleted("")).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
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

func (s *Storage) SoftDeleteInvitationsByOrganization(ctx context.Context, organizationID string, now time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.SoftDeleteInvitationsByOrganization")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("invitations").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"organization_id": organizationID}).
		Where(notDeleted("")).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete invitations: %w", err)
	}

	return rowsAffected(res)
}

// ClearInvitationInviter detaches a user from the invitations they issued.
func (s *Storage) ClearInvitationInviter(ctx context.Context, userID string, now time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ClearInvitationInviter")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("invitations").
		Set("invited_by", nil).
		Set("updated_at", now).
		Where(sq.Eq{"invited_by": userID}).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear invitation inviter: %w", err)
	}

	return rowsAffected(res)
}
