// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/storage"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/types"
	"github.com/canonical/organization-service/pkg/audit"
)

var _ ServiceInterface = (*Service)(nil)

// Service runs the invitation state machine: pending -> accepted | expired.
type Service struct {
	storage    StorageInterface
	users      UsersInterface
	authorizer AuthorizerInterface
	audit      AuditInterface
	lifetime   time.Duration
	now        func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Issue creates a pending invitation. A live pending invitation for the same
// email is a conflict; any older one is soft deleted to make room.
func (s *Service) Issue(ctx context.Context, actorID, organizationID, email, roleID string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Issue")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", types.ErrValidation)
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := s.now()

	var invitation *types.Invitation
	err = s.storage.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.storage.GetRole(ctx, roleID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return types.ErrRoleNotFound
			}
			return err
		}

		if err := s.authorizer.CanGrantRole(ctx, actorID, organizationID, roleID); err != nil {
			return err
		}

		previous, err := s.storage.GetInvitationByEmail(ctx, organizationID, email)
		switch {
		case err == nil && previous.Status == types.InvitationPending && !previous.IsOverdue(now):
			return types.ErrPendingInvite
		case err == nil:
			if err := s.storage.SoftDeleteInvitation(ctx, previous.ID, now); err != nil {
				return err
			}
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		invitation, err = s.storage.CreateInvitation(ctx, &types.Invitation{
			OrganizationID: organizationID,
			Email:          email,
			RoleID:         roleID,
			Token:          token,
			ExpiresAt:      now.Add(s.lifetime),
			InvitedBy:      &actorID,
		})
		if err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return types.ErrPendingInvite
			}
			return err
		}

		details := map[string]interface{}{"email": email, "role_id": roleID}

		return s.audit.Record(ctx, audit.Entry(actorID, organizationID, audit.ActionInvitationIssued, audit.EntityInvitation, invitation.ID, details))
	})
	if err != nil {
		return nil, err
	}

	return invitation, nil
}

// Validate returns the invitation behind token while it is pending and unexpired.
func (s *Service) Validate(ctx context.Context, token string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Validate")
	defer span.End()

	return s.lookup(ctx, token, s.now())
}

func (s *Service) lookup(ctx context.Context, token string, now time.Time) (*types.Invitation, error) {
	if token == "" {
		return nil, types.ErrInvitationInvalid
	}

	invitation, err := s.storage.GetInvitationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.ErrInvitationInvalid
		}
		return nil, err
	}

	switch {
	case invitation.Status == types.InvitationAccepted:
		return nil, types.ErrInvitationProcessed
	case invitation.Status == types.InvitationExpired:
		return nil, types.ErrInvitationExpired
	case invitation.IsOverdue(now):
		if _, err := s.storage.ExpireInvitation(ctx, invitation.ID, now); err != nil {
			s.logger.Errorf("failed to expire invitation %s: %v", invitation.ID, err)
		}
		return nil, types.ErrInvitationExpired
	}

	return invitation, nil
}

// Accept turns the invitation into a membership for userID. The caller's
// email must match the invited one. Accepting while already an active member
// fails and leaves the invitation pending.
func (s *Service) Accept(ctx context.Context, token, userID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Accept")
	defer span.End()

	now := s.now()

	invitation, err := s.lookup(ctx, token, now)
	if err != nil {
		return nil, err
	}

	user, err := s.users.EnsureUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(strings.TrimSpace(user.Email), strings.TrimSpace(invitation.Email)) {
		s.logger.Security().AuthzFailure(userID, "invitation:"+invitation.ID)
		return nil, types.ErrEmailMismatch
	}

	var member *types.Membership
	err = s.storage.WithTx(ctx, func(ctx context.Context) error {
		won, err := s.storage.MarkInvitationAccepted(ctx, invitation.ID, user.ID, now)
		if err != nil {
			return err
		}
		if !won {
			return s.lostTransition(ctx, token, now)
		}

		existing, err := s.storage.GetMembership(ctx, invitation.OrganizationID, user.ID)
		switch {
		case err == nil && existing.IsActive:
			return types.ErrAlreadyMember
		case err == nil:
			active := true
			upd := types.MembershipUpdate{RoleID: &invitation.RoleID, IsActive: &active}
			if err := s.storage.UpdateMembership(ctx, existing.ID, upd, now); err != nil {
				return err
			}
			if member, err = s.storage.GetMembership(ctx, invitation.OrganizationID, user.ID); err != nil {
				return err
			}
		case errors.Is(err, storage.ErrNotFound):
			if member, err = s.storage.CreateMembership(ctx, invitation.OrganizationID, user.ID, invitation.RoleID); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					return types.ErrAlreadyMember
				}
				return err
			}
		default:
			return err
		}

		details := map[string]interface{}{"invitation_id": invitation.ID, "role_id": invitation.RoleID}

		return s.audit.Record(ctx, audit.Entry(user.ID, invitation.OrganizationID, audit.ActionInvitationAccepted, audit.EntityMembership, member.ID, details))
	})
	if err != nil {
		return nil, err
	}

	return member, nil
}

// lostTransition explains why the conditional accept matched no row.
func (s *Service) lostTransition(ctx context.Context, token string, now time.Time) error {
	current, err := s.storage.GetInvitationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.ErrInvitationInvalid
		}
		return err
	}

	if current.Status == types.InvitationExpired || current.IsOverdue(now) {
		return types.ErrInvitationExpired
	}

	return types.ErrInvitationProcessed
}

func (s *Service) Cancel(ctx context.Context, actorID, organizationID, invitationID string) error {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Cancel")
	defer span.End()

	now := s.now()

	return s.storage.WithTx(ctx, func(ctx context.Context) error {
		invitation, err := s.storage.GetInvitation(ctx, organizationID, invitationID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return types.ErrInvitationInvalid
			}
			return err
		}

		if err := s.storage.SoftDeleteInvitation(ctx, invitation.ID, now); err != nil {
			return err
		}

		details := map[string]interface{}{"email": invitation.Email, "status": string(invitation.Status)}

		return s.audit.Record(ctx, audit.Entry(actorID, organizationID, audit.ActionInvitationCanceled, audit.EntityInvitation, invitation.ID, details))
	})
}

// List returns the organization's invitations without their tokens. Overdue
// pending rows are reported as expired.
func (s *Service) List(ctx context.Context, organizationID string) ([]*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.List")
	defer span.End()

	invitations, err := s.storage.ListInvitations(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, i := range invitations {
		if i.IsOverdue(now) {
			i.Status = types.InvitationExpired
		}
		i.Token = ""
	}

	return invitations, nil
}

// ExpireStale flips every overdue pending invitation to expired.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.ExpireStale")
	defer span.End()

	n, err := s.storage.ExpireStaleInvitations(ctx, s.now())
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.logger.Infof("expired %d invitations", n)
	}

	return n, nil
}

func NewService(storage StorageInterface, users UsersInterface, authorizer AuthorizerInterface, audit AuditInterface, lifetime time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	s := new(Service)

	s.storage = storage
	s.users = users
	s.authorizer = authorizer
	s.audit = audit
	s.lifetime = lifetime
	s.now = time.Now

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
