// Copyright 2025 Canonical Ltd
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/canonical/organization-service/internal/authorization"
	"github.com/canonical/organization-service/internal/db"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/pkg/audit"
	"github.com/canonical/organization-service/pkg/invitation"
	"github.com/canonical/organization-service/pkg/metrics"
	"github.com/canonical/organization-service/pkg/organization"
	"github.com/canonical/organization-service/pkg/rbac"
	"github.com/canonical/organization-service/pkg/status"
	"github.com/canonical/organization-service/pkg/users"
	"github.com/canonical/organization-service/pkg/webhooks"
)

const APIPrefix = "/api/v0"

type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
}

// NewRouter mounts every API under /api/v0. authn establishes the caller's
// identity: the token middleware, or the identity header middleware when
// token authentication is disabled.
func NewRouter(
	cfg RouterConfig,
	services *Services,
	dbClient db.DBClientInterface,
	authn func(http.Handler) http.Handler,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS(cfg.CORSAllowedOrigins),
	)

	router.Use(middlewares...)

	authz := authorization.NewMiddleware(services.Authorizer, tracer, monitor, logger)
	limiter := middlewareRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow, logger)
	txMiddleware := db.TransactionMiddleware(dbClient, logger)

	invitationAPI := invitation.NewAPI(services.Invitations, authz, limiter, tracer, monitor, logger)

	router.Route(APIPrefix, func(r chi.Router) {
		metrics.NewAPI(logger).RegisterEndpoints(r)
		status.NewAPI(dbClient, tracer, monitor, logger).RegisterEndpoints(r)

		// lazy expiry found by a validation commits on its own
		invitationAPI.RegisterPublicEndpoints(r)

		r.Group(func(r chi.Router) {
			r.Use(txMiddleware)
			webhooks.NewAPI(services.Webhooks, tracer, monitor, logger).RegisterEndpoints(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Use(txMiddleware)

			users.NewAPI(services.Users, authz, tracer, monitor, logger).RegisterEndpoints(r)
			organization.NewAPI(services.Organizations, authz, tracer, monitor, logger).RegisterEndpoints(r)
			invitationAPI.RegisterEndpoints(r)
			rbac.NewAPI(services.RBAC, authz, tracer, monitor, logger).RegisterEndpoints(r)
			audit.NewAPI(services.Audit, authz, tracer, monitor, logger).RegisterEndpoints(r)
		})
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}
