// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	httpTypes "github.com/canonical/organization-service/internal/http/types"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
)

// health probes carry no credentials
const healthServicePrefix = "/grpc.health.v1.Health/"

type Middleware struct {
	verifier TokenVerifierInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (m *Middleware) Authenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authentication.Middleware.Authenticate")
			defer span.End()

			// identity already established upstream, only wired when authentication is disabled
			if _, ok := GetUserID(ctx); ok {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token, found := bearerToken(r.Header.Get("Authorization"))
			if !found {
				m.unauthorizedResponse(w, "missing authorization header")
				return
			}

			userID, err := m.verifier.VerifyToken(ctx, token)
			if err != nil {
				m.logger.Debugf("JWT verification failed: %v", err)
				m.unauthorizedResponse(w, "invalid token")
				return
			}

			// Token is valid, inject user ID into context
			ctx = WithUserID(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GRPCInterceptor is a unary interceptor for gRPC authentication
func (m *Middleware) GRPCInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx, span := m.tracer.Start(ctx, "authentication.Middleware.GRPCInterceptor")
	defer span.End()

	if info != nil && strings.HasPrefix(info.FullMethod, healthServicePrefix) {
		return handler(ctx, req)
	}

	if _, ok := GetUserID(ctx); ok {
		return handler(ctx, req)
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is not provided")
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is not provided")
	}

	token, found := bearerToken(values[0])
	if !found {
		return nil, status.Error(codes.Unauthenticated, "authorization token is not a bearer token")
	}

	userID, err := m.verifier.VerifyToken(ctx, token)
	if err != nil {
		m.logger.Debugf("gRPC JWT verification failed: %v", err)
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	ctx = WithUserID(ctx, userID)
	return handler(ctx, req)
}

// bearerToken extracts the token of an RFC 6750 "Bearer <token>" value.
func bearerToken(value string) (string, bool) {
	token, found := strings.CutPrefix(value, "Bearer ")
	token = strings.TrimSpace(token)
	return token, found && token != ""
}

func (m *Middleware) unauthorizedResponse(w http.ResponseWriter, message string) {
	httpTypes.WriteJSON(
		w,
		http.StatusUnauthorized,
		httpTypes.ErrorResponse{Status: http.StatusUnauthorized, Message: message},
		m.logger,
	)
}

func NewMiddleware(verifier TokenVerifierInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		verifier: verifier,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}
