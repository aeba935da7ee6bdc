// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_tracer.go -source=../../internal/tracing/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_verifier.go -source=./interfaces.go

func TestMiddleware_Authenticate(t *testing.T) {
	tests := []struct {
		name               string
		authHeader         string
		presetUserID       string
		setupMocks         func(*gomock.Controller) TokenVerifierInterface
		expectedStatusCode int
		expectedBody       string
	}{
		{
			name:       "Missing token - rejects request",
			authHeader: "",
			setupMocks: func(ctrl *gomock.Controller) TokenVerifierInterface {
				mockVerifier := NewMockTokenVerifierInterface(ctrl)
				return mockVerifier
			},
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "Invalid token format - rejects request",
			authHeader: "InvalidToken",
			setupMocks: func(ctrl *gomock.Controller) TokenVerifierInterface {
				mockVerifier := NewMockTokenVerifierInterface(ctrl)
				return mockVerifier
			},
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "Token verification fails - rejects request",
			authHeader: "Bearer invalid-token",
			setupMocks: func(ctrl *gomock.Controller) TokenVerifierInterface {
				mockVerifier := NewMockTokenVerifierInterface(ctrl)
				mockVerifier.EXPECT().VerifyToken(gomock.Any(), "invalid-token").Return("", fmt.Errorf("invalid token"))
				return mockVerifier
			},
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:         "Identity already in context - skips verification",
			presetUserID: "user-456",
			setupMocks: func(ctrl *gomock.Controller) TokenVerifierInterface {
				mockVerifier := NewMockTokenVerifierInterface(ctrl)
				return mockVerifier
			},
			expectedStatusCode: http.StatusOK,
			expectedBody:       "success",
		},
		{
			name:       "Valid token",
			authHeader: "Bearer valid-token",
			setupMocks: func(ctrl *gomock.Controller) TokenVerifierInterface {
				mockVerifier := NewMockTokenVerifierInterface(ctrl)
				mockVerifier.EXPECT().VerifyToken(gomock.Any(), "valid-token").Return("user-123", nil)
				return mockVerifier
			},
			expectedStatusCode: http.StatusOK,
			expectedBody:       "success",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), "authentication.Middleware.Authenticate").
				DoAndReturn(func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
					return ctx, trace.SpanFromContext(ctx)
				})
			mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()

			mockVerifier := tt.setupMocks(ctrl)

			middleware := NewMiddleware(mockVerifier, mockTracer, mockMonitor, mockLogger)

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("success"))
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.presetUserID != "" {
				req = req.WithContext(WithUserID(req.Context(), tt.presetUserID))
			}
			rr := httptest.NewRecorder()

			middleware.Authenticate()(handler).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatusCode {
				t.Errorf("expected status %d, got %d", tt.expectedStatusCode, rr.Code)
			}

			if tt.expectedBody != "" && rr.Body.String() != tt.expectedBody {
				t.Errorf("expected body %q, got %q", tt.expectedBody, rr.Body.String())
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name          string
		authHeader    string
		expectedToken string
		expectedFound bool
	}{
		{
			name:          "No Authorization header",
			authHeader:    "",
			expectedToken: "",
			expectedFound: false,
		},
		{
			name:          "Bearer token",
			authHeader:    "Bearer my-token-123",
			expectedToken: "my-token-123",
			expectedFound: true,
		},
		{
			name:          "Bearer prefix without a token",
			authHeader:    "Bearer   ",
			expectedToken: "",
			expectedFound: false,
		},
		{
			name:          "Raw token without Bearer prefix",
			authHeader:    "my-token-123",
			expectedToken: "",
			expectedFound: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			token, found := bearerToken(test.authHeader)

			if token != test.expectedToken {
				t.Errorf("expected token %q, got %q", test.expectedToken, token)
			}
			if found != test.expectedFound {
				t.Errorf("expected found %v, got %v", test.expectedFound, found)
			}
		})
	}
}

func TestMiddleware_GRPCInterceptor(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		md           metadata.MD
		setupMocks   func(*MockTokenVerifierInterface)
		expectedCode codes.Code
		expectedUser string
	}{
		{
			name:         "Health check is not authenticated",
			method:       "/grpc.health.v1.Health/Check",
			setupMocks:   func(*MockTokenVerifierInterface) {},
			expectedCode: codes.OK,
		},
		{
			name:         "Missing metadata",
			method:       "/organization.v0.Service/Get",
			setupMocks:   func(*MockTokenVerifierInterface) {},
			expectedCode: codes.Unauthenticated,
		},
		{
			name:         "Not a bearer token",
			method:       "/organization.v0.Service/Get",
			md:           metadata.Pairs("authorization", "Basic abc"),
			setupMocks:   func(*MockTokenVerifierInterface) {},
			expectedCode: codes.Unauthenticated,
		},
		{
			name:   "Valid bearer token",
			method: "/organization.v0.Service/Get",
			md:     metadata.Pairs("authorization", "Bearer good"),
			setupMocks: func(mockVerifier *MockTokenVerifierInterface) {
				mockVerifier.EXPECT().VerifyToken(gomock.Any(), "good").Return("user-123", nil)
			},
			expectedCode: codes.OK,
			expectedUser: "user-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockVerifier := NewMockTokenVerifierInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), "authentication.Middleware.GRPCInterceptor").
				DoAndReturn(func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
					return ctx, trace.SpanFromContext(ctx)
				})
			mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()
			tt.setupMocks(mockVerifier)

			middleware := NewMiddleware(mockVerifier, mockTracer, mockMonitor, mockLogger)

			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.md)
			}

			var gotUser string
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				gotUser, _ = GetUserID(ctx)
				return "ok", nil
			}

			_, err := middleware.GRPCInterceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, handler)

			if code := status.Code(err); code != tt.expectedCode {
				t.Errorf("expected code %v, got %v", tt.expectedCode, code)
			}

			if gotUser != tt.expectedUser {
				t.Errorf("expected user %q, got %q", tt.expectedUser, gotUser)
			}
		})
	}
}
