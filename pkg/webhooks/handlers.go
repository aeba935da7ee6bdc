// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ory/hydra/v2/oauth2"

	httpTypes "github.com/canonical/organization-service/internal/http/types"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
)

// webhook payloads are small, anything larger is rejected before decoding
const maxPayloadBytes = 1 << 20

type API struct {
	service ServiceInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(service ServiceInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	return &API{
		service: service,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// RegisterEndpoints mounts the Kratos and Hydra hooks. They are called by the
// identity stack, not by users, so they sit outside the authenticated group.
func (a *API) RegisterEndpoints(r chi.Router) {
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/registration", a.registration)
		r.Post("/token", a.tokenHook)
	})
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, hook string, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes)).Decode(v); err != nil {
		a.logger.Warnf("rejected %s hook payload: %v", hook, err)
		httpTypes.WriteError(w, httpTypes.NewValidationError("malformed %s payload", hook), a.logger)
		return false
	}

	return true
}

func (a *API) registration(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "webhooks.API.registration")
	defer span.End()

	var identity KratosIdentity
	if !a.decode(w, r, "registration", &identity) {
		return
	}

	if err := a.service.HandleRegistration(ctx, identity); err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (a *API) tokenHook(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "webhooks.API.tokenHook")
	defer span.End()

	var req oauth2.TokenHookRequest
	if !a.decode(w, r, "token", &req) {
		return
	}

	resp, err := a.service.HandleTokenHook(ctx, &req)
	if err != nil {
		httpTypes.WriteError(w, err, a.logger)
		return
	}

	httpTypes.WriteJSON(w, http.StatusOK, resp, a.logger)
}
