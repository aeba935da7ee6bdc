// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/organization-service/internal/authorization"
	httpTypes "github.com/canonical/organization-service/internal/http/types"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/types"
)

type API struct {
	service ServiceInterface
	authz   authorization.MiddlewareInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(r chi.Router) {
	r.With(a.authz.RequirePlatformAdmin()).Get("/admin/audit-logs", a.handleListAll)
	r.With(a.authz.RequirePermission(types.PermissionAuditView)).Get("/organizations/{organization_id}/audit-logs", a.handleListForOrganization)
}

func (a *API) handleListAll(w http.ResponseWriter, r *http.Request) {
	a.list(w, r, nil)
}

func (a *API) handleListForOrganization(w http.ResponseWriter, r *http.Request) {
	organizationID, err := httpTypes.PathUUID(r, authorization.OrganizationIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	a.list(w, r, &organizationID)
}

func (a *API) list(w http.ResponseWriter, r *http.Request, organizationID *string) {
	ctx, span := a.tracer.Start(r.Context(), "audit.API.list")
	defer span.End()

	page, err := httpTypes.PageFromRequest(r)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	logs, err := a.service.List(ctx, types.AuditFilter{OrganizationID: organizationID, Page: page.Page, Size: page.Size})
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, logs, "List of audit log entries", page, a.logger)
}

func NewAPI(service ServiceInterface, authz authorization.MiddlewareInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	return &API{
		service: service,
		authz:   authz,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
