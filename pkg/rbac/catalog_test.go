// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rbac

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/canonical/organization-service/internal/types"
)

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name: "valid",
			input: `{"permissions":[{"key":"org.view","category":"organization"}],
				"roles":[{"name":"Member","permissions":["org.view"]}]}`,
		},
		{name: "malformed", input: `{"roles":`, wantErr: true},
		{name: "missing category", input: `{"permissions":[{"key":"org.view"}]}`, wantErr: true},
		{name: "missing role name", input: `{"roles":[{"permissions":[]}]}`, wantErr: true},
		{
			name:    "duplicate permission",
			input:   `{"permissions":[{"key":"a","category":"x"},{"key":"a","category":"y"}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, types.ErrValidation) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_ApplyCatalog(t *testing.T) {
	catalog := &Catalog{
		Permissions: []CatalogPermission{
			{Key: types.PermissionOrgView, Category: "organization"},
			{Key: types.PermissionBillingView, Category: "billing"},
		},
		Roles: []CatalogRole{
			{Name: types.RoleMember, Permissions: []string{types.PermissionBillingView}},
		},
	}

	testCases := []struct {
		name        string
		setupMocks  func(*MockStorageInterface, *MockAuditInterface)
		expectedErr error
	}{
		{
			name: "upserts and replaces role permissions",
			setupMocks: func(s *MockStorageInterface, a *MockAuditInterface) {
				s.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
					func(ctx context.Context, fn func(context.Context) error) error {
						return fn(ctx)
					},
				).Times(2)
				s.EXPECT().UpsertPermission(gomock.Any(), types.PermissionOrgView, "organization", "").Return(&types.Permission{ID: permA}, nil)
				s.EXPECT().UpsertPermission(gomock.Any(), types.PermissionBillingView, "billing", "").Return(&types.Permission{ID: permB}, nil)
				s.EXPECT().ListPermissions(gomock.Any()).Return([]*types.Permission{
					{ID: permA, Key: types.PermissionOrgView},
					{ID: permB, Key: types.PermissionBillingView},
				}, nil)
				s.EXPECT().UpsertRole(gomock.Any(), types.RoleMember, "").Return(&types.Role{ID: roleID, Name: types.RoleMember}, nil)
				s.EXPECT().GetRole(gomock.Any(), roleID).Return(&types.Role{ID: roleID}, nil)
				s.EXPECT().ListPermissionsByIDs(gomock.Any(), []string{permB}).Return([]*types.Permission{{ID: permB}}, nil)
				s.EXPECT().ListPermissionsByRole(gomock.Any(), roleID).Return([]*types.Permission{{ID: permA}}, nil)
				s.EXPECT().RemoveRolePermissions(gomock.Any(), roleID, []string{permA}).Return(nil)
				s.EXPECT().AddRolePermissions(gomock.Any(), roleID, []string{permB}).Return(nil)
				a.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "unknown permission aborts",
			setupMocks: func(s *MockStorageInterface, a *MockAuditInterface) {
				s.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
					func(ctx context.Context, fn func(context.Context) error) error {
						return fn(ctx)
					},
				)
				s.EXPECT().UpsertPermission(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&types.Permission{}, nil).Times(2)
				s.EXPECT().ListPermissions(gomock.Any()).Return([]*types.Permission{
					{ID: permA, Key: types.PermissionOrgView},
				}, nil)
			},
			expectedErr: types.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockAudit := NewMockAuditInterface(ctrl)
			tc.setupMocks(mockStorage, mockAudit)

			s := newTestService(ctrl, mockStorage, mockAudit)

			result, err := s.ApplyCatalog(context.Background(), "", catalog)
			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Permissions != 2 || result.Roles != 1 {
				t.Errorf("unexpected result %+v", result)
			}
		})
	}
}
