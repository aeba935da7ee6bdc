// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"time"

	"github.com/canonical/organization-service/internal/authorization"
	"github.com/canonical/organization-service/internal/kratos"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/storage"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/pkg/audit"
	"github.com/canonical/organization-service/pkg/invitation"
	"github.com/canonical/organization-service/pkg/organization"
	"github.com/canonical/organization-service/pkg/rbac"
	"github.com/canonical/organization-service/pkg/users"
	"github.com/canonical/organization-service/pkg/webhooks"
)

// Services groups the domain services sharing one storage.
type Services struct {
	Authorizer    *authorization.Authorizer
	Audit         *audit.Service
	RBAC          *rbac.Service
	Users         *users.Service
	Organizations *organization.Service
	Invitations   *invitation.Service
	Webhooks      *webhooks.Service
}

func NewServices(
	s storage.StorageInterface,
	kratosClient kratos.ClientInterface,
	invitationLifetime time.Duration,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Services {
	svc := new(Services)

	svc.Authorizer = authorization.NewAuthorizer(s, tracer, monitor, logger)
	svc.Audit = audit.NewService(s, tracer, monitor, logger)
	svc.RBAC = rbac.NewService(s, svc.Audit, tracer, monitor, logger)
	svc.Users = users.NewService(s, kratosClient, svc.Audit, tracer, monitor, logger)
	svc.Organizations = organization.NewService(s, svc.Users, kratosClient, svc.Authorizer, svc.Audit, tracer, monitor, logger)
	svc.Invitations = invitation.NewService(s, svc.Users, svc.Authorizer, svc.Audit, invitationLifetime, tracer, monitor, logger)
	svc.Webhooks = webhooks.NewService(s, svc.Users, svc.Invitations, tracer, monitor, logger)

	return svc
}
