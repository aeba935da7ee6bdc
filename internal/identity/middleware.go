// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/pkg/authentication"
)

const (
	// HeaderName is the header used by the Kratos/Oathkeeper proxy to pass the authenticated identity ID
	HeaderName = "X-Kratos-Authenticated-Identity-Id"
	// OrganizationHeaderName carries the active organization on routes without an organization path parameter
	OrganizationHeaderName = "X-Organization-Id"
)

// Middleware trusts the identity header set by an upstream proxy. It must only
// be mounted when token authentication is disabled.
type Middleware struct {
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewMiddleware(tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// identityFrom accepts only UUID identity IDs, Kratos never issues anything else.
func identityFrom(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return "", false
	}

	return id.String(), true
}

func (m *Middleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "identity.Middleware.HTTPMiddleware")
		defer span.End()

		raw := r.Header.Get(HeaderName)
		if userID, ok := identityFrom(raw); ok {
			ctx = authentication.WithUserID(ctx, userID)
		} else if raw != "" {
			m.logger.Debugf("ignoring malformed %s header on %s %s", HeaderName, r.Method, r.URL.Path)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) GRPCInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx, span := m.tracer.Start(ctx, "identity.Middleware.GRPCInterceptor")
	defer span.End()

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return handler(ctx, req)
	}

	// metadata keys are lowercased
	for _, value := range md.Get(strings.ToLower(HeaderName)) {
		if userID, ok := identityFrom(value); ok {
			ctx = authentication.WithUserID(ctx, userID)
			break
		}
	}

	return handler(ctx, req)
}
