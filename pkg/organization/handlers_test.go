// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package organization

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/organization-service/internal/authorization"
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

func TestAPI_Endpoints(t *testing.T) {
	suspended := types.OrganizationSuspended

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		header     string
		setupMocks func(*MockServiceInterface)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "my permissions from header",
			method: http.MethodGet,
			path:   "/organizations/my-permissions",
			header: orgID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().MyPermissions(gomock.Any(), actorID, orgID).
					Return(types.NewPermissionSet(types.PermissionOrgView, types.PermissionMemberView), nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"permissions":["member.view","org.view"]`,
		},
		{
			name:       "my permissions without organization",
			method:     http.MethodGet,
			path:       "/organizations/my-permissions",
			setupMocks: func(*MockServiceInterface) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "create organization",
			method: http.MethodPost,
			path:   "/organizations",
			body:   `{"name":"Acme"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().CreateOrganization(gomock.Any(), actorID, "Acme", "").Return(&types.Organization{ID: orgID, Slug: "acme"}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "create organization with unknown field",
			method:     http.MethodPost,
			path:       "/organizations",
			body:       `{"name":"Acme","plan":"gold"}`,
			setupMocks: func(*MockServiceInterface) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "suspend organization",
			method: http.MethodPatch,
			path:   "/organizations/" + orgID,
			body:   `{"status":"suspended"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().UpdateOrganization(gomock.Any(), actorID, orgID, types.OrganizationUpdate{Status: &suspended}).
					Return(&types.Organization{ID: orgID, Status: suspended}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown status",
			method:     http.MethodPatch,
			path:       "/organizations/" + orgID,
			body:       `{"status":"closed"}`,
			setupMocks: func(*MockServiceInterface) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "add existing member",
			method: http.MethodPost,
			path:   "/organizations/" + orgID + "/members",
			body:   `{"user_id":"` + memberID + `","role_id":"` + adminRoleID + `"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().AddMember(gomock.Any(), actorID, orgID, MemberRequest{UserID: memberID, RoleID: adminRoleID}).
					Return(nil, types.ErrAlreadyMember)
			},
			wantStatus: http.StatusConflict,
			wantBody:   "already a member",
		},
		{
			name:   "remove last owner",
			method: http.MethodDelete,
			path:   "/organizations/" + orgID + "/members/" + actorID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().RemoveMember(gomock.Any(), actorID, orgID, actorID).Return(types.ErrLastOwner)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "member path with malformed user id",
			method:     http.MethodDelete,
			path:       "/organizations/" + orgID + "/members/xyz",
			setupMocks: func(*MockServiceInterface) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "admin listing is paginated",
			method: http.MethodGet,
			path:   "/admin/organizations?page=3&size=20",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().ListOrganizations(gomock.Any(), int64(3), int64(20)).Return([]*types.Organization{}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"_meta":{"page":3,"size":20}`,
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

			r := chi.NewRouter()
			NewAPI(mockSvc, allowAll{}, mockTracer, NewMockMonitorInterface(ctrl), logging.NewNoopLogger()).RegisterEndpoints(r)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req = req.WithContext(authentication.WithUserID(req.Context(), actorID))
			if tt.header != "" {
				req.Header.Set(authorization.OrganizationHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("expected body to contain %s, got %s", tt.wantBody, w.Body.String())
			}

			if !json.Valid(w.Body.Bytes()) {
				t.Errorf("invalid json body %s", w.Body.String())
			}
		})
	}
}
