// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"net/http"
	"time"

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

type issueInvitationRequest struct {
	Email  string `json:"email" validate:"required,email,max=320"`
	RoleID string `json:"role_id" validate:"required,uuid"`
}

// invitationView is what an invitee sees before accepting.
type invitationView struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organization_id"`
	Email          string                 `json:"email"`
	RoleID         string                 `json:"role_id"`
	Status         types.InvitationStatus `json:"status"`
	ExpiresAt      time.Time              `json:"expires_at"`
}

type API struct {
	service   ServiceInterface
	authz     authorization.MiddlewareInterface
	limiter   func(http.Handler) http.Handler
	validator *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// RegisterPublicEndpoints mounts the routes reachable without credentials.
func (a *API) RegisterPublicEndpoints(r chi.Router) {
	r.With(a.limiter).Get("/invitations/{token}", a.handleValidate)
}

func (a *API) RegisterEndpoints(r chi.Router) {
	r.With(a.limiter).Post("/invitations/{token}/accept", a.handleAccept)

	r.With(a.authz.RequirePermission(types.PermissionMemberView)).Get("/organizations/{organization_id}/invitations", a.handleList)
	r.With(a.limiter, a.authz.RequirePermission(types.PermissionMemberInvite)).Post("/organizations/{organization_id}/invitations", a.handleIssue)
	r.With(a.authz.RequirePermission(types.PermissionMemberInvite)).Delete("/organizations/{organization_id}/invitations/{invitation_id}", a.handleCancel)
}

func (a *API) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitation.API.handleValidate")
	defer span.End()

	token, err := httpTypes.PathString(r, "token")
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	invitation, err := a.service.Validate(ctx, token)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	view := invitationView{
		ID:             invitation.ID,
		OrganizationID: invitation.OrganizationID,
		Email:          invitation.Email,
		RoleID:         invitation.RoleID,
		Status:         invitation.Status,
		ExpiresAt:      invitation.ExpiresAt,
	}

	httpTypes.WriteResponse(w, http.StatusOK, view, "Invitation is valid", nil, a.logger)
}

func (a *API) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitation.API.handleAccept")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httpTypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	token, err := httpTypes.PathString(r, "token")
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	member, err := a.service.Accept(ctx, token, userID)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, member, "Invitation accepted", nil, a.logger)
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	organizationID, err := httpTypes.PathUUID(r, authorization.OrganizationIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	invitations, err := a.service.List(r.Context(), organizationID)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, invitations, "List of invitations", nil, a.logger)
}

func (a *API) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitation.API.handleIssue")
	defer span.End()

	organizationID, err := httpTypes.PathUUID(r, authorization.OrganizationIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	req := new(issueInvitationRequest)
	if err := httpTypes.DecodeJSON(r, req, a.validator); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	actorID := authentication.ActorID(ctx)

	invitation, err := a.service.Issue(ctx, actorID, organizationID, req.Email, req.RoleID)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusCreated, invitation, "Invitation issued", nil, a.logger)
}

func (a *API) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitation.API.handleCancel")
	defer span.End()

	organizationID, err := httpTypes.PathUUID(r, authorization.OrganizationIDParam)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	invitationID, err := httpTypes.PathUUID(r, "invitation_id")
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	actorID := authentication.ActorID(ctx)

	if err := a.service.Cancel(ctx, actorID, organizationID, invitationID); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteResponse(w, http.StatusOK, nil, "Invitation canceled", nil, a.logger)
}

// NewAPI wires the invitation routes; limiter throttles the token endpoints.
func NewAPI(service ServiceInterface, authz authorization.MiddlewareInterface, limiter func(http.Handler) http.Handler, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service
	a.authz = authz
	a.limiter = limiter
	a.validator = validator.New(validator.WithRequiredStructEnabled())

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
