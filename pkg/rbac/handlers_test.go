// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rbac

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

func TestAPI_Endpoints(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setupMocks func(*MockServiceInterface)
		wantStatus int
	}{
		{
			name:   "list roles",
			method: http.MethodGet,
			path:   "/roles",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().ListRoles(gomock.Any()).Return([]*types.Role{{ID: roleID}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "get missing role",
			method: http.MethodGet,
			path:   "/roles/" + roleID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().GetRole(gomock.Any(), roleID).Return(nil, types.ErrRoleNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "get role with malformed id",
			method:     http.MethodGet,
			path:       "/roles/abc",
			setupMocks: func(*MockServiceInterface) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "create role",
			method: http.MethodPost,
			path:   "/roles",
			body:   `{"name":"Billing","description":"billing team"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().CreateRole(gomock.Any(), actorID, "Billing", "billing team").Return(&types.Role{ID: roleID}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "create role without name",
			method:     http.MethodPost,
			path:       "/roles",
			body:       `{"description":"billing team"}`,
			setupMocks: func(*MockServiceInterface) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "delete role in use",
			method: http.MethodDelete,
			path:   "/roles/" + roleID,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().DeleteRole(gomock.Any(), actorID, roleID).Return(types.ErrRoleInUse)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:   "replace role permissions",
			method: http.MethodPut,
			path:   "/roles/" + roleID + "/permissions",
			body:   `{"permission_ids":["` + permA + `"]}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().SetRolePermissions(gomock.Any(), actorID, roleID, []string{permA}).
					Return([]*types.Permission{{ID: permA}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "replace role permissions with malformed id",
			method:     http.MethodPut,
			path:       "/roles/" + roleID + "/permissions",
			body:       `{"permission_ids":["nope"]}`,
			setupMocks: func(*MockServiceInterface) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "create permission",
			method: http.MethodPost,
			path:   "/permissions",
			body:   `{"key":"report.view","category":"report"}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().CreatePermission(gomock.Any(), actorID, "report.view", "report", "").
					Return(&types.Permission{ID: permC}, nil)
			},
			wantStatus: http.StatusCreated,
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
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}
