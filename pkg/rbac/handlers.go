// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/canonical/organization-service/internal/authorization"
	httpTypes "github.com/canonical/organization-service/internal/http/types"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/pkg/authentication"
)

const roleIDParam = "role_id"

type createRoleRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=255"`
}

type updateRoleRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=64"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

type createPermissionRequest struct {
	Key         string `json:"key" validate:"required,max=128"`
	Category    string `json:"category" validate:"required,max=64"`
	Description string `json:"description" validate:"max=255"`
}

type setRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" validate:"required,dive,uuid"`
}

type API struct {
	service   ServiceInterface
	authz     authorization.MiddlewareInterface
	validator *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(r chi.Router) {
	r.Get("/roles", a.handleListRoles)
	r.Get("/roles/{role_id}", a.handleGetRole)
	r.Get("/roles/{role_id}/permissions", a.handleGetRolePermissions)
	r.Get("/permissions", a.handleListPermissions)

	r.Group(func(r chi.Router) {
		r.Use(a.authz.RequirePlatformAdmin())

		r.Post("/roles", a.handleCreateRole)
		r.Patch("/roles/{role_id}", a.handleUpdateRole)
		r.Delete("/roles/{role_id}", a.handleDeleteRole)
		r.Put("/roles/{role_id}/permissions", a.handleSetRolePermissions)
		r.Post("/permissions", a.handleCreatePermission)
	})
}

func (a *API) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := a.service.ListRoles(r.Context())
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, roles, "List of roles", nil, a.logger)
}

func (a *API) handleGetRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := httpTypes.PathUUID(r, roleIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	role, err := a.service.GetRole(r.Context(), roleID)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, role, "Role details", nil, a.logger)
}

func (a *API) handleGetRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := httpTypes.PathUUID(r, roleIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	permissions, err := a.service.GetPermissionsForRole(r.Context(), roleID)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, permissions, "Permissions of the role", nil, a.logger)
}

func (a *API) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := a.service.ListPermissions(r.Context())
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, permissions, "List of permissions", nil, a.logger)
}

func (a *API) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "rbac.API.handleCreateRole")
	defer span.End()

	req := new(createRoleRequest)
	if err := httpTypes.DecodeJSON(r, req, a.validator); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	actorID := authentication.ActorID(ctx)

	role, err := a.service.CreateRole(ctx, actorID, req.Name, req.Description)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusCreated, role, "Role created", nil, a.logger)
}

func (a *API) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "rbac.API.handleUpdateRole")
	defer span.End()

	roleID, err := httpTypes.PathUUID(r, roleIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	req := new(updateRoleRequest)
	if err := httpTypes.DecodeJSON(r, req, a.validator); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	actorID := authentication.ActorID(ctx)

	role, err := a.service.UpdateRole(ctx, actorID, roleID, req.Name, req.Description)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, role, "Role updated", nil, a.logger)
}

func (a *API) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "rbac.API.handleDeleteRole")
	defer span.End()

	roleID, err := httpTypes.PathUUID(r, roleIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	actorID := authentication.ActorID(ctx)

	if err := a.service.DeleteRole(ctx, actorID, roleID); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, nil, "Role deleted", nil, a.logger)
}

func (a *API) handleSetRolePermissions(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "rbac.API.handleSetRolePermissions")
	defer span.End()

	roleID, err := httpTypes.PathUUID(r, roleIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	req := new(setRolePermissionsRequest)
	if err := httpTypes.DecodeJSON(r, req, a.validator); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	actorID := authentication.ActorID(ctx)

	permissions, err := a.service.SetRolePermissions(ctx, actorID, roleID, req.PermissionIDs)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, permissions, "Role permissions replaced", nil, a.logger)
}

func (a *API) handleCreatePermission(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "rbac.API.handleCreatePermission")
	defer span.End()

	req := new(createPermissionRequest)
	if err := httpTypes.DecodeJSON(r, req, a.validator); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	actorID := authentication.ActorID(ctx)

	permission, err := a.service.CreatePermission(ctx, actorID, req.Key, req.Category, req.Description)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusCreated, permission, "Permission created", nil, a.logger)
}

func NewAPI(service ServiceInterface, authz authorization.MiddlewareInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.authz = authz
	a.validator = validator.New(validator.WithRequiredStructEnabled())

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
