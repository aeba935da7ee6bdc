// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ory/hydra/v2/oauth2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/organization-service/internal/types"
)

func hookBody(t *testing.T, v interface{}) string {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	return string(b)
}

func TestAPI_Hooks(t *testing.T) {
	tokenResponse := &TokenHookResponse{}
	tokenResponse.Session.AccessToken = map[string]interface{}{OrganizationsClaim: []string{"org-1", "org-2"}}

	tests := []struct {
		name       string
		path       string
		body       func(*testing.T) string
		setupMocks func(*MockServiceInterface, *MockLoggerInterface)
		wantStatus int
		check      func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "registration without invitation",
			path: "/webhooks/registration",
			body: func(t *testing.T) string {
				return hookBody(t, KratosIdentity{ID: "identity-1", Email: "ada@example.com"})
			},
			setupMocks: func(s *MockServiceInterface, l *MockLoggerInterface) {
				s.EXPECT().HandleRegistration(gomock.Any(), KratosIdentity{ID: "identity-1", Email: "ada@example.com"}).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "registration carries the invitation token",
			path: "/webhooks/registration",
			body: func(t *testing.T) string {
				return `{"id":"identity-2","email":"bob@example.com","invitation_token":"tok"}`
			},
			setupMocks: func(s *MockServiceInterface, l *MockLoggerInterface) {
				s.EXPECT().HandleRegistration(gomock.Any(), KratosIdentity{ID: "identity-2", Email: "bob@example.com", InvitationToken: "tok"}).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "registration missing email",
			path: "/webhooks/registration",
			body: func(t *testing.T) string { return `{"id":"identity-3"}` },
			setupMocks: func(s *MockServiceInterface, l *MockLoggerInterface) {
				s.EXPECT().HandleRegistration(gomock.Any(), KratosIdentity{ID: "identity-3"}).Return(types.ErrValidation)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "registration storage failure",
			path: "/webhooks/registration",
			body: func(t *testing.T) string { return `{"id":"identity-4","email":"eve@example.com"}` },
			setupMocks: func(s *MockServiceInterface, l *MockLoggerInterface) {
				s.EXPECT().HandleRegistration(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
				l.EXPECT().Errorf(gomock.Any(), gomock.Any())
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "registration malformed payload",
			path: "/webhooks/registration",
			body: func(t *testing.T) string { return `{"id":` },
			setupMocks: func(s *MockServiceInterface, l *MockLoggerInterface) {
				l.EXPECT().Warnf(gomock.Any(), "registration", gomock.Any())
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "token hook adds organizations",
			path: "/webhooks/token",
			body: func(t *testing.T) string {
				return hookBody(t, oauth2.TokenHookRequest{Session: oauth2.NewSession("user-1")})
			},
			setupMocks: func(s *MockServiceInterface, l *MockLoggerInterface) {
				s.EXPECT().HandleTokenHook(gomock.Any(), gomock.Any()).Return(tokenResponse, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var got TokenHookResponse
				if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}

				orgs, ok := got.Session.AccessToken[OrganizationsClaim].([]interface{})
				if !ok || len(orgs) != 2 {
					t.Errorf("expected two organizations in the access token, got %v", got.Session.AccessToken)
				}
			},
		},
		{
			name: "token hook malformed payload",
			path: "/webhooks/token",
			body: func(t *testing.T) string { return "not-json" },
			setupMocks: func(s *MockServiceInterface, l *MockLoggerInterface) {
				l.EXPECT().Warnf(gomock.Any(), "token", gomock.Any())
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "token hook lookup failure",
			path: "/webhooks/token",
			body: func(t *testing.T) string {
				return hookBody(t, oauth2.TokenHookRequest{Session: oauth2.NewSession("user-1")})
			},
			setupMocks: func(s *MockServiceInterface, l *MockLoggerInterface) {
				s.EXPECT().HandleTokenHook(gomock.Any(), gomock.Any()).Return(nil, errors.New("pool closed"))
				l.EXPECT().Errorf(gomock.Any(), gomock.Any())
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tt.setupMocks(mockService, mockLogger)

			r := chi.NewRouter()
			NewAPI(mockService, mockTracer, NewMockMonitorInterface(ctrl), mockLogger).RegisterEndpoints(r)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body(t))))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.check != nil {
				tt.check(t, w)
			}
		})
	}
}
