// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package organization

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/canonical/organization-service/internal/authorization"
	httpTypes "github.com/canonical/organization-service/internal/http/types"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/types"
	"github.com/canonical/organization-service/pkg/authentication"
)

type createOrganizationRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Slug string `json:"slug" validate:"omitempty,max=63"`
}

type updateOrganizationRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=255"`
	Status *string `json:"status" validate:"omitempty,oneof=active suspended archived"`
}

type addMemberRequest struct {
	UserID string `json:"user_id" validate:"omitempty,uuid"`
	Email  string `json:"email" validate:"omitempty,email"`
	RoleID string `json:"role_id" validate:"required,uuid"`
}

type updateMemberRequest struct {
	RoleID   *string `json:"role_id" validate:"omitempty,uuid"`
	IsActive *bool   `json:"is_active"`
}

type permissionsResponse struct {
	OrganizationID string              `json:"organization_id"`
	Permissions    types.PermissionSet `json:"permissions"`
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
	r.Get("/organizations/my-permissions", a.handleMyPermissions)
	r.Get("/organizations", a.handleListMine)
	r.Post("/organizations", a.handleCreate)

	r.With(a.authz.RequirePermission(types.PermissionOrgView)).Get("/organizations/{organization_id}", a.handleGet)
	r.With(a.authz.RequirePermission(types.PermissionOrgUpdate)).Patch("/organizations/{organization_id}", a.handleUpdate)
	r.With(a.authz.RequirePermission(types.PermissionOrgDelete)).Delete("/organizations/{organization_id}", a.handleDelete)

	r.With(a.authz.RequirePermission(types.PermissionMemberView)).Get("/organizations/{organization_id}/members", a.handleListMembers)
	r.With(a.authz.RequirePermission(types.PermissionMemberUpdate)).Post("/organizations/{organization_id}/members", a.handleAddMember)
	r.With(a.authz.RequirePermission(types.PermissionMemberUpdate)).Patch("/organizations/{organization_id}/members/{user_id}", a.handleUpdateMember)
	r.With(a.authz.RequirePermission(types.PermissionMemberRemove)).Delete("/organizations/{organization_id}/members/{user_id}", a.handleRemoveMember)

	r.With(a.authz.RequirePlatformAdmin()).Get("/admin/organizations", a.handleListAll)
}

func (a *API) handleMyPermissions(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organization.API.handleMyPermissions")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httpTypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	organizationID := authorization.OrganizationIDFromRequest(r)
	if organizationID == "" {
		httpTypes.WriteError(w, httpTypes.NewValidationError("%s header is required", authorization.OrganizationHeader), a.logger)
		return
	}

	permissions, err := a.service.MyPermissions(ctx, userID, organizationID)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(
		w,
		http.StatusOK,
		permissionsResponse{OrganizationID: organizationID, Permissions: permissions},
		"Permissions in the organization",
		nil,
		a.logger,
	)
}

func (a *API) handleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := authentication.GetUserID(r.Context())
	if !ok {
		httpTypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	orgs, err := a.service.ListMyOrganizations(r.Context(), userID)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, orgs, "List of organizations", nil, a.logger)
}

func (a *API) handleListAll(w http.ResponseWriter, r *http.Request) {
	page, err := httpTypes.PageFromRequest(r)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	orgs, err := a.service.ListOrganizations(r.Context(), page.Page, page.Size)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, orgs, "List of organizations", page, a.logger)
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organization.API.handleCreate")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httpTypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	req := new(createOrganizationRequest)
	if err := httpTypes.DecodeJSON(r, req, a.validator); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	org, err := a.service.CreateOrganization(ctx, userID, req.Name, req.Slug)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusCreated, org, "Organization created", nil, a.logger)
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	organizationID, err := httpTypes.PathUUID(r, authorization.OrganizationIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	org, err := a.service.GetOrganization(r.Context(), organizationID)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, org, "Organization details", nil, a.logger)
}

func (a *API) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organization.API.handleUpdate")
	defer span.End()

	organizationID, err := httpTypes.PathUUID(r, authorization.OrganizationIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	req := new(updateOrganizationRequest)
	if err := httpTypes.DecodeJSON(r, req, a.validator); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	upd := types.OrganizationUpdate{Name: req.Name}
	if req.Status != nil {
		status := types.OrganizationStatus(*req.Status)
		upd.Status = &status
	}

	actorID := authentication.ActorID(ctx)

	org, err := a.service.UpdateOrganization(ctx, actorID, organizationID, upd)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, org, "Organization updated", nil, a.logger)
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organization.API.handleDelete")
	defer span.End()

	organizationID, err := httpTypes.PathUUID(r, authorization.OrganizationIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	actorID := authentication.ActorID(ctx)

	if err := a.service.DeleteOrganization(ctx, actorID, organizationID); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, nil, "Organization deleted", nil, a.logger)
}

func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	organizationID, err := httpTypes.PathUUID(r, authorization.OrganizationIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	members, err := a.service.ListMembers(r.Context(), organizationID)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, members, "List of members", nil, a.logger)
}

func (a *API) handleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organization.API.handleAddMember")
	defer span.End()

	organizationID, err := httpTypes.PathUUID(r, authorization.OrganizationIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	req := new(addMemberRequest)
	if err := httpTypes.DecodeJSON(r, req, a.validator); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	actorID := authentication.ActorID(ctx)

	member, err := a.service.AddMember(ctx, actorID, organizationID, MemberRequest{UserID: req.UserID, Email: req.Email, RoleID: req.RoleID})
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusCreated, member, "Member added", nil, a.logger)
}

func (a *API) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organization.API.handleUpdateMember")
	defer span.End()

	organizationID, userID, err := a.memberPath(r)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	req := new(updateMemberRequest)
	if err := httpTypes.DecodeJSON(r, req, a.validator); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	actorID := authentication.ActorID(ctx)

	member, err := a.service.UpdateMember(ctx, actorID, organizationID, userID, types.MembershipUpdate{RoleID: req.RoleID, IsActive: req.IsActive})
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, member, "Member updated", nil, a.logger)
}

func (a *API) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organization.API.handleRemoveMember")
	defer span.End()

	organizationID, userID, err := a.memberPath(r)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	actorID := authentication.ActorID(ctx)

	if err := a.service.RemoveMember(ctx, actorID, organizationID, userID); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, nil, "Member removed", nil, a.logger)
}

func (a *API) memberPath(r *http.Request) (string, string, error) {
	organizationID, err := httpTypes.PathUUID(r, authorization.OrganizationIDParam)
	if err != nil {
		return "", "", err
	}

	userID, err := httpTypes.PathUUID(r, "user_id")
	if err != nil {
		return "", "", err
	}

	return organizationID, userID, nil
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
