// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/types"
	"github.com/canonical/organization-service/pkg/authentication"
)

type allowAll struct{}

func (allowAll) RequirePermission(string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return next }
}

func (allowAll) RequirePlatformAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return next }
}

func passthrough(next http.Handler) http.Handler { return next }

func TestAPI_Endpoints(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		caller     string
		setupMocks func(*MockServiceInterface)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "validate",
			method: http.MethodGet,
			path:   "/invitations/" + token,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Validate(gomock.Any(), token).Return(pending(testNow.Add(1)), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "validate expired",
			method: http.MethodGet,
			path:   "/invitations/" + token,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Validate(gomock.Any(), token).Return(nil, types.ErrInvitationExpired)
			},
			wantStatus: http.StatusGone,
			wantBody:   `"code":"invitation_expired"`,
		},
		{
			name:   "accept",
			method: http.MethodPost,
			path:   "/invitations/" + token + "/accept",
			caller: inviteeID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Accept(gomock.Any(), token, inviteeID).Return(&types.Membership{ID: "m1"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "accept anonymously",
			method:     http.MethodPost,
			path:       "/invitations/" + token + "/accept",
			setupMocks: func(*MockServiceInterface) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "accept with another email",
			method: http.MethodPost,
			path:   "/invitations/" + token + "/accept",
			caller: inviteeID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Accept(gomock.Any(), token, inviteeID).Return(nil, types.ErrEmailMismatch)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "accept twice",
			method: http.MethodPost,
			path:   "/invitations/" + token + "/accept",
			caller: inviteeID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Accept(gomock.Any(), token, inviteeID).Return(nil, types.ErrInvitationProcessed)
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"code":"invitation_processed"`,
		},
		{
			name:   "accept as existing member",
			method: http.MethodPost,
			path:   "/invitations/" + token + "/accept",
			caller: inviteeID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Accept(gomock.Any(), token, inviteeID).Return(nil, types.ErrAlreadyMember)
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"code":"already_member"`,
		},
		{
			name:   "issue",
			method: http.MethodPost,
			path:   "/organizations/" + orgID + "/invitations",
			body:   `{"email":"invitee@example.com","role_id":"` + roleID + `"}`,
			caller: actorID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Issue(gomock.Any(), actorID, orgID, "invitee@example.com", roleID).Return(pending(testNow), nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"token":"tok"`,
		},
		{
			name:       "issue with invalid email",
			method:     http.MethodPost,
			path:       "/organizations/" + orgID + "/invitations",
			body:       `{"email":"nope","role_id":"` + roleID + `"}`,
			caller:     actorID,
			setupMocks: func(*MockServiceInterface) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "issue while pending",
			method: http.MethodPost,
			path:   "/organizations/" + orgID + "/invitations",
			body:   `{"email":"invitee@example.com","role_id":"` + roleID + `"}`,
			caller: actorID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Issue(gomock.Any(), actorID, orgID, "invitee@example.com", roleID).Return(nil, types.ErrPendingInvite)
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"code":"pending_invitation"`,
		},
		{
			name:   "cancel",
			method: http.MethodDelete,
			path:   "/organizations/" + orgID + "/invitations/" + invitationID,
			caller: actorID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Cancel(gomock.Any(), actorID, orgID, invitationID).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "list",
			method: http.MethodGet,
			path:   "/organizations/" + orgID + "/invitations",
			caller: actorID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().List(gomock.Any(), orgID).Return([]*types.Invitation{}, nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSvc := NewMockServiceInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
				func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
					return ctx, trace.SpanFromContext(ctx)
				},
			).AnyTimes()
			tt.setupMocks(mockSvc)

			api := NewAPI(mockSvc, allowAll{}, passthrough, mockTracer, NewMockMonitorInterface(ctrl), logging.NewNoopLogger())
			r := chi.NewRouter()
			api.RegisterPublicEndpoints(r)
			api.RegisterEndpoints(r)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.caller != "" {
				req = req.WithContext(authentication.WithUserID(req.Context(), tt.caller))
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("expected body to contain %s, got %s", tt.wantBody, w.Body.String())
			}
		})
	}
}
