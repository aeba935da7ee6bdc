// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"errors"
	"testing"

	"github.com/ory/hydra/v2/oauth2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/organization-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func TestService_HandleRegistration(t *testing.T) {
	user := &types.User{ID: "identity-123", Email: "user@example.com", Name: "User"}

	testCases := []struct {
		name        string
		identity    KratosIdentity
		setupMocks  func(*MockUsersInterface, *MockInvitationsInterface, *MockLoggerInterface)
		expectedErr bool
	}{
		{
			name:     "success without invitation",
			identity: KratosIdentity{ID: user.ID, Email: user.Email, Name: user.Name},
			setupMocks: func(users *MockUsersInterface, invitations *MockInvitationsInterface, logger *MockLoggerInterface) {
				logger.EXPECT().Debugf(gomock.Any(), gomock.Any())
				users.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, u *types.User) (*types.User, error) {
						if u.ID != user.ID || u.Email != user.Email || u.Name != user.Name {
							return nil, errors.New("unexpected user")
						}
						return user, nil
					})
			},
		},
		{
			name:     "success with invitation",
			identity: KratosIdentity{ID: user.ID, Email: user.Email, InvitationToken: "token"},
			setupMocks: func(users *MockUsersInterface, invitations *MockInvitationsInterface, logger *MockLoggerInterface) {
				logger.EXPECT().Debugf(gomock.Any(), gomock.Any())
				users.EXPECT().Register(gomock.Any(), gomock.Any()).Return(user, nil)
				invitations.EXPECT().Accept(gomock.Any(), "token", user.ID).
					Return(&types.Membership{OrganizationID: "org-1", UserID: user.ID}, nil)
				logger.EXPECT().Infof(gomock.Any(), user.ID, "org-1")
			},
		},
		{
			name:     "invitation failure does not fail registration",
			identity: KratosIdentity{ID: user.ID, Email: user.Email, InvitationToken: "token"},
			setupMocks: func(users *MockUsersInterface, invitations *MockInvitationsInterface, logger *MockLoggerInterface) {
				logger.EXPECT().Debugf(gomock.Any(), gomock.Any())
				users.EXPECT().Register(gomock.Any(), gomock.Any()).Return(user, nil)
				invitations.EXPECT().Accept(gomock.Any(), "token", user.ID).Return(nil, types.ErrInvitationExpired)
				logger.EXPECT().Warnf(gomock.Any(), user.ID, gomock.Any())
			},
		},
		{
			name:     "error - empty email",
			identity: KratosIdentity{ID: user.ID},
			setupMocks: func(users *MockUsersInterface, invitations *MockInvitationsInterface, logger *MockLoggerInterface) {
				logger.EXPECT().Debugf(gomock.Any(), gomock.Any())
			},
			expectedErr: true,
		},
		{
			name:     "error - register fails",
			identity: KratosIdentity{ID: user.ID, Email: user.Email, InvitationToken: "token"},
			setupMocks: func(users *MockUsersInterface, invitations *MockInvitationsInterface, logger *MockLoggerInterface) {
				logger.EXPECT().Debugf(gomock.Any(), gomock.Any())
				users.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockUsers := NewMockUsersInterface(ctrl)
			mockInvitations := NewMockInvitationsInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			s := NewService(mockStorage, mockUsers, mockInvitations, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "webhooks.Service.HandleRegistration").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockUsers, mockInvitations, mockLogger)

			err := s.HandleRegistration(context.Background(), tc.identity)

			if tc.expectedErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tc.expectedErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_HandleTokenHook(t *testing.T) {
	userID := "user-123"
	orgs := []*types.Organization{
		{ID: "org-1", Name: "Org 1", Slug: "org-1"},
		{ID: "org-2", Name: "Org 2", Slug: "org-2"},
	}

	testCases := []struct {
		name         string
		request      *oauth2.TokenHookRequest
		setupMocks   func(*MockStorageInterface, *MockLoggerInterface)
		expectedErr  bool
		validateResp func(*testing.T, *TokenHookResponse)
	}{
		{
			name:    "success - user with organizations",
			request: &oauth2.TokenHookRequest{Session: oauth2.NewSession(userID)},
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Debugf(gomock.Any())
				mockLogger.EXPECT().Debugf(gomock.Any(), userID, gomock.Any())
				mockStorage.EXPECT().ListOrganizationsByUser(gomock.Any(), userID).Return(orgs, nil)
			},
			validateResp: func(t *testing.T, resp *TokenHookResponse) {
				if resp == nil {
					t.Fatal("expected response but got nil")
				}
				ids, ok := resp.Session.IDToken[OrganizationsClaim].([]string)
				if !ok || len(ids) != 2 || ids[0] != "org-1" {
					t.Errorf("expected 2 organizations in ID token, got %v", resp.Session.IDToken[OrganizationsClaim])
				}
				if resp.Session.AccessToken[OrganizationsClaim] == nil {
					t.Error("expected organizations in access token")
				}
			},
		},
		{
			name:    "success - user with no organizations",
			request: &oauth2.TokenHookRequest{Session: oauth2.NewSession(userID)},
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Debugf(gomock.Any())
				mockLogger.EXPECT().Debugf(gomock.Any(), userID, gomock.Any())
				mockStorage.EXPECT().ListOrganizationsByUser(gomock.Any(), userID).Return([]*types.Organization{}, nil)
			},
			validateResp: func(t *testing.T, resp *TokenHookResponse) {
				if resp == nil {
					t.Fatal("expected response but got nil")
				}
				if _, ok := resp.Session.IDToken[OrganizationsClaim]; ok {
					t.Error("expected no organizations claim for empty list")
				}
			},
		},
		{
			name:    "error - no subject in session",
			request: &oauth2.TokenHookRequest{Session: oauth2.NewSession("")},
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Debugf(gomock.Any())
			},
			expectedErr: true,
		},
		{
			name:    "error - nil session",
			request: &oauth2.TokenHookRequest{},
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Debugf(gomock.Any())
			},
			expectedErr: true,
		},
		{
			name:    "error - storage error",
			request: &oauth2.TokenHookRequest{Session: oauth2.NewSession(userID)},
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Debugf(gomock.Any())
				mockStorage.EXPECT().ListOrganizationsByUser(gomock.Any(), userID).Return(nil, errors.New("storage error"))
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockUsers := NewMockUsersInterface(ctrl)
			mockInvitations := NewMockInvitationsInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			s := NewService(mockStorage, mockUsers, mockInvitations, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "webhooks.Service.HandleTokenHook").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockStorage, mockLogger)

			resp, err := s.HandleTokenHook(context.Background(), tc.request)

			if tc.expectedErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tc.validateResp != nil {
				tc.validateResp(t, resp)
			}
		})
	}
}
