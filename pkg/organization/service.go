// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package organization

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

// MemberRequest names the user to add by id or by email, not both.
type MemberRequest struct {
	UserID string
	Email  string
	RoleID string
}

type Service struct {
	storage    StorageInterface
	users      UsersInterface
	kratos     KratosClientInterface
	authorizer AuthorizerInterface
	audit      AuditInterface
	now        func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// CreateOrganization creates an active organization with the actor as its Owner.
func (s *Service) CreateOrganization(ctx context.Context, actorID, name, slug string) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "organization.Service.CreateOrganization")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: organization name is required", types.ErrValidation)
	}

	if slug == "" {
		slug = Slugify(name)
	}
	if !validSlug(slug) {
		return nil, fmt.Errorf("%w: invalid slug %q", types.ErrValidation, slug)
	}

	if _, err := s.users.EnsureUser(ctx, actorID); err != nil {
		return nil, err
	}

	var org *types.Organization
	err := s.storage.WithTx(ctx, func(ctx context.Context) error {
		owner, err := s.storage.GetRoleByName(ctx, types.RoleOwner)
		if err != nil {
			return fmt.Errorf("failed to load owner role: %w", err)
		}

		org, err = s.storage.CreateOrganization(ctx, &types.Organization{
			Name:      name,
			Slug:      slug,
			Status:    types.OrganizationActive,
			CreatedBy: &actorID,
		})
		if err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return fmt.Errorf("%w: slug %q is taken", types.ErrConflict, slug)
			}
			return err
		}

		if _, err := s.storage.CreateMembership(ctx, org.ID, actorID, owner.ID); err != nil {
			return fmt.Errorf("failed to add owner: %w", err)
		}

		return s.audit.Record(ctx, audit.Entry(actorID, org.ID, audit.ActionOrganizationCreated, audit.EntityOrganization, org.ID, map[string]interface{}{"name": name, "slug": slug}))
	})
	if err != nil {
		return nil, err
	}

	return org, nil
}

func (s *Service) GetOrganization(ctx context.Context, organizationID string) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "organization.Service.GetOrganization")
	defer span.End()

	org, err := s.storage.GetOrganization(ctx, organizationID)
	if err != nil {
		return nil, orgError(err)
	}

	return org, nil
}

func (s *Service) ListMyOrganizations(ctx context.Context, userID string) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "organization.Service.ListMyOrganizations")
	defer span.End()

	return s.storage.ListOrganizationsByUser(ctx, userID)
}

func (s *Service) ListOrganizations(ctx context.Context, page, size int64) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "organization.Service.ListOrganizations")
	defer span.End()

	return s.storage.ListOrganizations(ctx, page, size)
}

func (s *Service) UpdateOrganization(ctx context.Context, actorID, organizationID string, upd types.OrganizationUpdate) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "organization.Service.UpdateOrganization")
	defer span.End()

	details := make(map[string]interface{})
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: organization name cannot be empty", types.ErrValidation)
		}
		upd.Name = &name
		details["name"] = name
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, fmt.Errorf("%w: invalid status %q", types.ErrValidation, *upd.Status)
		}
		details["status"] = string(*upd.Status)
	}
	if len(details) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", types.ErrValidation)
	}

	var org *types.Organization
	err := s.storage.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if org, err = s.storage.UpdateOrganization(ctx, organizationID, upd, s.now()); err != nil {
			return orgError(err)
		}

		return s.audit.Record(ctx, audit.Entry(actorID, organizationID, audit.ActionOrganizationUpdated, audit.EntityOrganization, organizationID, details))
	})
	if err != nil {
		return nil, err
	}

	return org, nil
}

// DeleteOrganization soft deletes the organization with its memberships and invitations.
func (s *Service) DeleteOrganization(ctx context.Context, actorID, organizationID string) error {
	ctx, span := s.tracer.Start(ctx, "organization.Service.DeleteOrganization")
	defer span.End()

	now := s.now()

	return s.storage.WithTx(ctx, func(ctx context.Context) error {
		if err := s.storage.SoftDeleteOrganization(ctx, organizationID, now); err != nil {
			return orgError(err)
		}

		members, err := s.storage.SoftDeleteMembershipsByOrganization(ctx, organizationID, now)
		if err != nil {
			return err
		}

		invitations, err := s.storage.SoftDeleteInvitationsByOrganization(ctx, organizationID, now)
		if err != nil {
			return err
		}

		details := map[string]interface{}{"memberships_removed": members, "invitations_removed": invitations}

		return s.audit.Record(ctx, audit.Entry(actorID, organizationID, audit.ActionOrganizationDeleted, audit.EntityOrganization, organizationID, details))
	})
}

func (s *Service) ListMembers(ctx context.Context, organizationID string) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "organization.Service.ListMembers")
	defer span.End()

	return s.storage.ListMembers(ctx, organizationID)
}

// AddMember adds a user directly, reactivating an inactive membership.
func (s *Service) AddMember(ctx context.Context, actorID, organizationID string, req MemberRequest) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "organization.Service.AddMember")
	defer span.End()

	if (req.UserID == "") == (req.Email == "") {
		return nil, fmt.Errorf("%w: exactly one of user_id and email is required", types.ErrValidation)
	}
	if req.RoleID == "" {
		return nil, fmt.Errorf("%w: role_id is required", types.ErrValidation)
	}

	user, err := s.resolveUser(ctx, req)
	if err != nil {
		return nil, err
	}

	var member *types.Membership
	err = s.storage.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.storage.GetRole(ctx, req.RoleID); err != nil {
			return roleError(err)
		}

		if err := s.authorizer.CanGrantRole(ctx, actorID, organizationID, req.RoleID); err != nil {
			return err
		}

		existing, err := s.storage.GetMembership(ctx, organizationID, user.ID)
		switch {
		case err == nil && existing.IsActive:
			return types.ErrAlreadyMember
		case err == nil:
			active := true
			upd := types.MembershipUpdate{RoleID: &req.RoleID, IsActive: &active}
			if err := s.storage.UpdateMembership(ctx, existing.ID, upd, s.now()); err != nil {
				return err
			}
			if member, err = s.storage.GetMembership(ctx, organizationID, user.ID); err != nil {
				return err
			}
		case errors.Is(err, storage.ErrNotFound):
			if member, err = s.storage.CreateMembership(ctx, organizationID, user.ID, req.RoleID); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					return types.ErrAlreadyMember
				}
				return err
			}
		default:
			return err
		}

		return s.audit.Record(ctx, audit.Entry(actorID, organizationID, audit.ActionMemberAdded, audit.EntityMembership, member.ID, map[string]interface{}{"user_id": user.ID, "role_id": req.RoleID}))
	})
	if err != nil {
		return nil, err
	}

	return member, nil
}

func (s *Service) resolveUser(ctx context.Context, req MemberRequest) (*types.User, error) {
	if req.UserID != "" {
		return s.users.EnsureUser(ctx, req.UserID)
	}

	user, err := s.storage.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	identityID, err := s.kratos.GetIdentityIDByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if identityID == "" {
		return nil, types.ErrUserNotFound
	}

	return s.users.EnsureUser(ctx, identityID)
}

// UpdateMember changes the role and/or activity of a membership. The last
// active Owner can be neither demoted nor deactivated.
func (s *Service) UpdateMember(ctx context.Context, actorID, organizationID, userID string, upd types.MembershipUpdate) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "organization.Service.UpdateMember")
	defer span.End()

	if upd.RoleID == nil && upd.IsActive == nil {
		return nil, fmt.Errorf("%w: nothing to update", types.ErrValidation)
	}

	var member *types.Membership
	err := s.storage.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.storage.GetMembership(ctx, organizationID, userID)
		if err != nil {
			return memberError(err)
		}

		if err := s.canManage(ctx, actorID, current); err != nil {
			return err
		}

		losesOwner := upd.IsActive != nil && !*upd.IsActive
		details := map[string]interface{}{"user_id": userID}

		if upd.RoleID != nil {
			role, err := s.storage.GetRole(ctx, *upd.RoleID)
			if err != nil {
				return roleError(err)
			}
			if err := s.authorizer.CanGrantRole(ctx, actorID, organizationID, role.ID); err != nil {
				return err
			}
			losesOwner = losesOwner || role.Name != types.RoleOwner
			details["role_id"] = role.ID
		}
		if upd.IsActive != nil {
			details["is_active"] = *upd.IsActive
		}

		if current.IsEffective() && current.RoleName == types.RoleOwner && losesOwner {
			if err := s.guardLastOwner(ctx, organizationID); err != nil {
				return err
			}
		}

		if err := s.storage.UpdateMembership(ctx, current.ID, upd, s.now()); err != nil {
			return memberError(err)
		}

		if member, err = s.storage.GetMembership(ctx, organizationID, userID); err != nil {
			return memberError(err)
		}

		return s.audit.Record(ctx, audit.Entry(actorID, organizationID, audit.ActionMemberUpdated, audit.EntityMembership, current.ID, details))
	})
	if err != nil {
		return nil, err
	}

	return member, nil
}

// RemoveMember soft deletes a membership; the last active Owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, actorID, organizationID, userID string) error {
	ctx, span := s.tracer.Start(ctx, "organization.Service.RemoveMember")
	defer span.End()

	return s.storage.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.storage.GetMembership(ctx, organizationID, userID)
		if err != nil {
			return memberError(err)
		}

		if err := s.canManage(ctx, actorID, current); err != nil {
			return err
		}

		if current.IsEffective() && current.RoleName == types.RoleOwner {
			if err := s.guardLastOwner(ctx, organizationID); err != nil {
				return err
			}
		}

		if err := s.storage.SoftDeleteMembership(ctx, current.ID, s.now()); err != nil {
			return memberError(err)
		}

		return s.audit.Record(ctx, audit.Entry(actorID, organizationID, audit.ActionMemberRemoved, audit.EntityMembership, current.ID, map[string]interface{}{"user_id": userID}))
	})
}

// MyPermissions resolves the caller's permissions; non-members get an empty set.
func (s *Service) MyPermissions(ctx context.Context, userID, organizationID string) (types.PermissionSet, error) {
	ctx, span := s.tracer.Start(ctx, "organization.Service.MyPermissions")
	defer span.End()

	return s.authorizer.ResolvePermissions(ctx, userID, organizationID)
}

// canManage requires the actor to hold everything the member's current role
// grants. Members can always manage their own membership.
func (s *Service) canManage(ctx context.Context, actorID string, member *types.Membership) error {
	if actorID == member.UserID {
		return nil
	}
	return s.authorizer.CanGrantRole(ctx, actorID, member.OrganizationID, member.RoleID)
}

func (s *Service) guardLastOwner(ctx context.Context, organizationID string) error {
	owners, err := s.storage.CountActiveMembersWithRole(ctx, organizationID, types.RoleOwner)
	if err != nil {
		return err
	}

	if owners <= 1 {
		return types.ErrLastOwner
	}

	return nil
}

func orgError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return types.ErrOrgNotFound
	}
	return err
}

func memberError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return types.ErrMemberNotFound
	}
	return err
}

func roleError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return types.ErrRoleNotFound
	}
	return err
}

func NewService(
	storage StorageInterface,
	users UsersInterface,
	kratos KratosClientInterface,
	authorizer AuthorizerInterface,
	audit AuditInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	s := new(Service)

	s.storage = storage
	s.users = users
	s.kratos = kratos
	s.authorizer = authorizer
	s.audit = audit
	s.now = time.Now

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
