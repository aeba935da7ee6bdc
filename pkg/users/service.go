// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canonical/organization-service/internal/kratos"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/storage"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/types"
	"github.com/canonical/organization-service/pkg/audit"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface
	kratos  KratosClientInterface
	audit   AuditInterface
	now     func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// EnsureUser returns the local user, provisioning it from the identity
// provider the first time an authenticated subject shows up.
func (s *Service) EnsureUser(ctx context.Context, userID string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.EnsureUser")
	defer span.End()

	user, err := s.storage.GetUser(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	identity, err := s.kratos.GetIdentity(ctx, userID)
	if err != nil {
		if errors.Is(err, kratos.ErrIdentityNotFound) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch identity %s: %w", userID, err)
	}

	s.logger.Infof("provisioning user %s from identity", userID)

	return s.Register(ctx, identity)
}

// Register creates the local user row; an existing row is returned as is.
func (s *Service) Register(ctx context.Context, user *types.User) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.Register")
	defer span.End()

	if user == nil || user.ID == "" || user.Email == "" {
		return nil, fmt.Errorf("%w: user needs an id and an email", types.ErrValidation)
	}

	created, err := s.storage.CreateUser(ctx, user)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return nil, fmt.Errorf("failed to create user %s: %w", user.ID, err)
	}

	existing, err := s.storage.GetUser(ctx, user.ID)
	if err != nil {
		// the email belongs to another live user
		return nil, fmt.Errorf("%w: email %s is already registered", types.ErrConflict, user.Email)
	}

	return existing, nil
}

func (s *Service) MyOrganizations(ctx context.Context, userID string) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.MyOrganizations")
	defer span.End()

	return s.storage.ListOrganizationsByUser(ctx, userID)
}

// DeleteUser soft deletes a user with their memberships. Invitations they
// issued are kept without an inviter.
func (s *Service) DeleteUser(ctx context.Context, actorID, userID string) error {
	ctx, span := s.tracer.Start(ctx, "users.Service.DeleteUser")
	defer span.End()

	now := s.now()

	var removed int64
	err := s.storage.WithTx(ctx, func(ctx context.Context) error {
		if err := s.storage.SoftDeleteUser(ctx, userID, now); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return types.ErrUserNotFound
			}
			return err
		}

		var err error
		if removed, err = s.storage.SoftDeleteMembershipsByUser(ctx, userID, now); err != nil {
			return err
		}

		if _, err := s.storage.ClearInvitationInviter(ctx, userID, now); err != nil {
			return err
		}

		return s.audit.Record(ctx, audit.Entry(actorID, "", audit.ActionUserDeleted, audit.EntityUser, userID, map[string]interface{}{"memberships_removed": removed}))
	})
	if err != nil {
		return err
	}

	if actorID != userID {
		s.logger.Security().AdminAction(actorID, audit.ActionUserDeleted, audit.EntityUser, userID)
	}

	return nil
}

func NewService(storage StorageInterface, kratos KratosClientInterface, audit AuditInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	s := new(Service)

	s.storage = storage
	s.kratos = kratos
	s.audit = audit
	s.now = time.Now

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
