// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/organization-service/internal/authorization"
	httpTypes "github.com/canonical/organization-service/internal/http/types"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/types"
	"github.com/canonical/organization-service/pkg/authentication"
)

type API struct {
	service ServiceInterface
	authz   authorization.MiddlewareInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(r chi.Router) {
	r.Get("/me", a.handleMe)
	r.Get("/me/organizations", a.handleMyOrganizations)
	r.Delete("/me", a.handleDeleteMe)
	r.With(a.authz.RequirePlatformAdmin()).Delete("/admin/users/{user_id}", a.handleDeleteUser)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := authentication.GetUserID(r.Context())
	if !ok {
		httpTypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	user, err := a.service.EnsureUser(r.Context(), userID)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, user, "Current user", nil, a.logger)
}

func (a *API) handleMyOrganizations(w http.ResponseWriter, r *http.Request) {
	userID, ok := authentication.GetUserID(r.Context())
	if !ok {
		httpTypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	orgs, err := a.service.MyOrganizations(r.Context(), userID)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, orgs, "Organizations of the current user", nil, a.logger)
}

func (a *API) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.handleDeleteMe")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httpTypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	if err := a.service.DeleteUser(ctx, userID, userID); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, nil, "User deleted", nil, a.logger)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.handleDeleteUser")
	defer span.End()

	userID, err := httpTypes.PathUUID(r, "user_id")
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	actorID := authentication.ActorID(ctx)

	if err := a.service.DeleteUser(ctx, actorID, userID); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, nil, "User deleted", nil, a.logger)
}

func NewAPI(service ServiceInterface, authz authorization.MiddlewareInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.authz = authz

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
