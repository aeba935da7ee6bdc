// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"fmt"

	"github.com/ory/hydra/v2/oauth2"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/types"
)

// OrganizationsClaim lists the subject's active organization ids.
const OrganizationsClaim = "organizations"

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage     StorageInterface
	users       UsersInterface
	invitations InvitationsInterface
	tracer      tracing.TracingInterface
	monitor     monitoring.MonitorInterface
	logger      logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	users UsersInterface,
	invitations InvitationsInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:     storage,
		users:       users,
		invitations: invitations,
		tracer:      tracer,
		monitor:     monitor,
		logger:      logger,
	}
}

// HandleRegistration creates the local user for a new identity. When the
// user signed up from an invitation it is accepted on their behalf; a failed
// acceptance does not fail the registration.
func (s *Service) HandleRegistration(ctx context.Context, identity KratosIdentity) error {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleRegistration")
	defer span.End()

	s.logger.Debugf("Handling registration for identity %s", identity.ID)

	if identity.ID == "" || identity.Email == "" {
		return fmt.Errorf("%w: identity id or email is empty", types.ErrValidation)
	}

	user, err := s.users.Register(ctx, &types.User{ID: identity.ID, Email: identity.Email, Name: identity.Name})
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	if identity.InvitationToken == "" {
		return nil
	}

	member, err := s.invitations.Accept(ctx, identity.InvitationToken, user.ID)
	if err != nil {
		s.logger.Warnf("user %s registered but the invitation was not accepted: %v", user.ID, err)
		return nil
	}

	s.logger.Infof("user %s joined organization %s at registration", user.ID, member.OrganizationID)

	return nil
}

// HandleTokenHook adds the organizations claim to tokens issued by Hydra.
func (s *Service) HandleTokenHook(ctx context.Context, req *oauth2.TokenHookRequest) (*TokenHookResponse, error) {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleTokenHook")
	defer span.End()

	s.logger.Debugf("Handling token hook request")

	if req == nil || req.Session == nil || req.Session.DefaultSession == nil {
		return nil, fmt.Errorf("%w: token hook request has no session", types.ErrValidation)
	}

	subject := req.Session.DefaultSession.Subject
	if subject == "" {
		return nil, fmt.Errorf("%w: token hook session has no subject", types.ErrValidation)
	}

	orgs, err := s.storage.ListOrganizationsByUser(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations for %s: %w", subject, err)
	}

	s.logger.Debugf("Subject %s belongs to %d organizations", subject, len(orgs))

	resp := new(TokenHookResponse)
	resp.Session.IDToken = make(map[string]interface{})
	resp.Session.AccessToken = make(map[string]interface{})

	if len(orgs) == 0 {
		return resp, nil
	}

	ids := make([]string, 0, len(orgs))
	for _, o := range orgs {
		ids = append(ids, o.ID)
	}

	resp.Session.IDToken[OrganizationsClaim] = ids
	resp.Session.AccessToken[OrganizationsClaim] = ids

	return resp, nil
}
