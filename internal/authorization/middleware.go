// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"net/http"

	httpTypes "github.com/canonical/organization-service/internal/http/types"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/types"
	"github.com/canonical/organization-service/pkg/authentication"
)

var _ MiddlewareInterface = (*Middleware)(nil)

// Middleware guards routes with organization permissions or the platform
// admin flag. Every decision fails closed.
type Middleware struct {
	authorizer AuthorizerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// RequirePermission lets the request through only when the authenticated user
// holds key in the organization named by the route or the organization header.
func (m *Middleware) RequirePermission(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authorization.Middleware.RequirePermission")
			defer span.End()

			userID, ok := authentication.GetUserID(ctx)
			if !ok || userID == "" {
				httpTypes.WriteError(w, types.ErrUnauthenticated, m.logger)
				return
			}

			organizationID := OrganizationIDFromRequest(r)
			if organizationID == "" {
				httpTypes.WriteError(w, httpTypes.NewValidationError("organization is required"), m.logger)
				return
			}

			permissions, err := m.authorizer.ResolvePermissions(ctx, userID, organizationID)
			if err != nil {
				m.logger.Errorf("permission lookup failed for user %s in organization %s: %v", userID, organizationID, err)
				httpTypes.WriteError(w, err, m.logger)
				return
			}

			if permissions.IsEmpty() {
				m.logger.Security().AuthzFailureNoPermissions(userID, organizationID)
				httpTypes.WriteError(w, types.ErrForbidden, m.logger)
				return
			}

			if !permissions.Has(key) {
				m.logger.Security().AuthzFailure(userID, organizationID+":"+key)
				httpTypes.WriteError(w, types.ErrForbidden, m.logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPermissions(ctx, permissions)))
		})
	}
}

// RequirePlatformAdmin lets the request through only for platform administrators.
func (m *Middleware) RequirePlatformAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authorization.Middleware.RequirePlatformAdmin")
			defer span.End()

			userID, ok := authentication.GetUserID(ctx)
			if !ok || userID == "" {
				httpTypes.WriteError(w, types.ErrUnauthenticated, m.logger)
				return
			}

			isAdmin, err := m.authorizer.IsPlatformAdmin(ctx, userID)
			if err != nil {
				m.logger.Errorf("platform admin lookup failed for user %s: %v", userID, err)
				httpTypes.WriteError(w, err, m.logger)
				return
			}

			if !isAdmin {
				m.logger.Security().AuthzFailure(userID, "platform:admin")
				httpTypes.WriteError(w, types.ErrForbidden, m.logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func NewMiddleware(authorizer AuthorizerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		authorizer: authorizer,
		tracer:     tracer,
		monitor:    monitor,
		logger:     logger,
	}
}
