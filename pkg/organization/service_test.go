// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package organization

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/storage"
	"github.com/canonical/organization-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package organization -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package organization -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package organization -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package organization -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

const (
	actorID      = "01900000-0000-7000-8000-0000000000c1"
	memberID     = "01900000-0000-7000-8000-0000000000c2"
	orgID        = "01900000-0000-7000-8000-0000000000d1"
	ownerRoleID  = "01900000-0000-7000-8000-000000000001"
	adminRoleID  = "01900000-0000-7000-8000-000000000002"
	memberRoleID = "01900000-0000-7000-8000-000000000003"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type mocks struct {
	storage    *MockStorageInterface
	users      *MockUsersInterface
	kratos     *MockKratosClientInterface
	authorizer *MockAuthorizerInterface
	audit      *MockAuditInterface
}

func newTestService(ctrl *gomock.Controller) (*Service, *mocks) {
	m := &mocks{
		storage:    NewMockStorageInterface(ctrl),
		users:      NewMockUsersInterface(ctrl),
		kratos:     NewMockKratosClientInterface(ctrl),
		authorizer: NewMockAuthorizerInterface(ctrl),
		audit:      NewMockAuditInterface(ctrl),
	}

	mockTracer := NewMockTracingInterface(ctrl)
	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		Return(context.Background(), trace.SpanFromContext(context.Background())).AnyTimes()

	s := NewService(m.storage, m.users, m.kratos, m.authorizer, m.audit, mockTracer, NewMockMonitorInterface(ctrl), logging.NewNoopLogger())
	s.now = func() time.Time { return testNow }

	return s, m
}

func runInTx(s *MockStorageInterface) {
	s.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
}

func ownerMembership(userID string) *types.Membership {
	return &types.Membership{ID: "m-" + userID, OrganizationID: orgID, UserID: userID, RoleID: ownerRoleID, RoleName: types.RoleOwner, IsActive: true}
}

func adminMembership(userID string) *types.Membership {
	return &types.Membership{ID: "m-" + userID, OrganizationID: orgID, UserID: userID, RoleID: adminRoleID, RoleName: types.RoleAdmin, IsActive: true}
}

func regularMembership(userID string) *types.Membership {
	return &types.Membership{ID: "m-" + userID, OrganizationID: orgID, UserID: userID, RoleID: memberRoleID, RoleName: types.RoleMember, IsActive: true}
}

func grants(m *mocks, roleID string, err error) {
	m.authorizer.EXPECT().CanGrantRole(gomock.Any(), actorID, orgID, roleID).Return(err)
}

var errEscalation = fmt.Errorf("%w: missing org.delete", types.ErrRoleEscalation)

func TestService_CreateOrganization(t *testing.T) {
	testCases := []struct {
		name         string
		orgName      string
		slug         string
		setupMocks   func(*mocks)
		expectedSlug string
		expectedErr  error
	}{
		{
			name:    "creator becomes owner",
			orgName: "Acme Rockets, Inc.",
			setupMocks: func(m *mocks) {
				m.users.EXPECT().EnsureUser(gomock.Any(), actorID).Return(&types.User{ID: actorID}, nil)
				runInTx(m.storage)
				m.storage.EXPECT().GetRoleByName(gomock.Any(), types.RoleOwner).Return(&types.Role{ID: ownerRoleID, Name: types.RoleOwner}, nil)
				m.storage.EXPECT().CreateOrganization(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, o *types.Organization) (*types.Organization, error) {
						o.ID = orgID
						return o, nil
					},
				)
				m.storage.EXPECT().CreateMembership(gomock.Any(), orgID, actorID, ownerRoleID).Return(ownerMembership(actorID), nil)
				m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedSlug: "acme-rockets-inc",
		},
		{
			name:        "blank name",
			orgName:     "   ",
			setupMocks:  func(*mocks) {},
			expectedErr: types.ErrValidation,
		},
		{
			name:        "invalid slug",
			orgName:     "Acme",
			slug:        "Not A Slug",
			setupMocks:  func(*mocks) {},
			expectedErr: types.ErrValidation,
		},
		{
			name:    "slug taken",
			orgName: "Acme",
			setupMocks: func(m *mocks) {
				m.users.EXPECT().EnsureUser(gomock.Any(), actorID).Return(&types.User{ID: actorID}, nil)
				runInTx(m.storage)
				m.storage.EXPECT().GetRoleByName(gomock.Any(), types.RoleOwner).Return(&types.Role{ID: ownerRoleID}, nil)
				m.storage.EXPECT().CreateOrganization(gomock.Any(), gomock.Any()).Return(nil, storage.ErrDuplicateKey)
			},
			expectedErr: types.ErrConflict,
		},
		{
			name:    "unknown creator",
			orgName: "Acme",
			setupMocks: func(m *mocks) {
				m.users.EXPECT().EnsureUser(gomock.Any(), actorID).Return(nil, types.ErrUserNotFound)
			},
			expectedErr: types.ErrUserNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, m := newTestService(ctrl)
			tc.setupMocks(m)

			org, err := s.CreateOrganization(context.Background(), actorID, tc.orgName, tc.slug)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if org.Slug != tc.expectedSlug || org.Status != types.OrganizationActive {
				t.Errorf("unexpected organization %+v", org)
			}
		})
	}
}

func TestService_UpdateMember(t *testing.T) {
	inactive, active := false, true
	adminRole, ownerRole, memberRole := adminRoleID, ownerRoleID, memberRoleID

	testCases := []struct {
		name        string
		userID      string
		upd         types.MembershipUpdate
		setupMocks  func(*mocks)
		expectedErr error
	}{
		{
			name:   "demoting the last owner",
			userID: actorID,
			upd:    types.MembershipUpdate{RoleID: &adminRole},
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, actorID).Return(ownerMembership(actorID), nil)
				m.storage.EXPECT().GetRole(gomock.Any(), adminRoleID).Return(&types.Role{ID: adminRoleID, Name: types.RoleAdmin}, nil)
				grants(m, adminRoleID, nil)
				m.storage.EXPECT().CountActiveMembersWithRole(gomock.Any(), orgID, types.RoleOwner).Return(1, nil)
			},
			expectedErr: types.ErrLastOwner,
		},
		{
			name:   "deactivating the last owner",
			userID: actorID,
			upd:    types.MembershipUpdate{IsActive: &inactive},
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, actorID).Return(ownerMembership(actorID), nil)
				m.storage.EXPECT().CountActiveMembersWithRole(gomock.Any(), orgID, types.RoleOwner).Return(1, nil)
			},
			expectedErr: types.ErrLastOwner,
		},
		{
			name:   "demoting one of two owners",
			userID: memberID,
			upd:    types.MembershipUpdate{RoleID: &adminRole},
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(ownerMembership(memberID), nil)
				grants(m, ownerRoleID, nil)
				m.storage.EXPECT().GetRole(gomock.Any(), adminRoleID).Return(&types.Role{ID: adminRoleID, Name: types.RoleAdmin}, nil)
				grants(m, adminRoleID, nil)
				m.storage.EXPECT().CountActiveMembersWithRole(gomock.Any(), orgID, types.RoleOwner).Return(2, nil)
				m.storage.EXPECT().UpdateMembership(gomock.Any(), "m-"+memberID, gomock.Any(), testNow).Return(nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(&types.Membership{ID: "m-" + memberID, RoleName: types.RoleAdmin, IsActive: true}, nil)
				m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:   "deactivating a regular member",
			userID: memberID,
			upd:    types.MembershipUpdate{IsActive: &inactive},
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(regularMembership(memberID), nil)
				grants(m, memberRoleID, nil)
				m.storage.EXPECT().UpdateMembership(gomock.Any(), "m-"+memberID, gomock.Any(), testNow).Return(nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).
					Return(&types.Membership{ID: "m-" + memberID, RoleName: types.RoleMember}, nil)
				m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:   "unknown member",
			userID: memberID,
			upd:    types.MembershipUpdate{IsActive: &inactive},
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(nil, storage.ErrNotFound)
			},
			expectedErr: types.ErrMemberNotFound,
		},
		{
			name:   "admin promoting themselves to owner",
			userID: actorID,
			upd:    types.MembershipUpdate{RoleID: &ownerRole},
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, actorID).Return(adminMembership(actorID), nil)
				m.storage.EXPECT().GetRole(gomock.Any(), ownerRoleID).Return(&types.Role{ID: ownerRoleID, Name: types.RoleOwner}, nil)
				grants(m, ownerRoleID, errEscalation)
			},
			expectedErr: types.ErrRoleEscalation,
		},
		{
			name:   "admin demoting an owner",
			userID: memberID,
			upd:    types.MembershipUpdate{RoleID: &memberRole},
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(ownerMembership(memberID), nil)
				grants(m, ownerRoleID, errEscalation)
			},
			expectedErr: types.ErrRoleEscalation,
		},
		{
			name:   "admin reactivating an owner",
			userID: memberID,
			upd:    types.MembershipUpdate{IsActive: &active},
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				owner := ownerMembership(memberID)
				owner.IsActive = false
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(owner, nil)
				grants(m, ownerRoleID, errEscalation)
			},
			expectedErr: types.ErrForbidden,
		},
		{
			name:        "empty update",
			userID:      memberID,
			setupMocks:  func(*mocks) {},
			expectedErr: types.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, m := newTestService(ctrl)
			tc.setupMocks(m)

			_, err := s.UpdateMember(context.Background(), actorID, orgID, tc.userID, tc.upd)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_RemoveMember(t *testing.T) {
	testCases := []struct {
		name        string
		setupMocks  func(*mocks)
		expectedErr error
	}{
		{
			name: "last owner",
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(ownerMembership(memberID), nil)
				grants(m, ownerRoleID, nil)
				m.storage.EXPECT().CountActiveMembersWithRole(gomock.Any(), orgID, types.RoleOwner).Return(1, nil)
			},
			expectedErr: types.ErrLastOwner,
		},
		{
			name: "admin removing an owner",
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(ownerMembership(memberID), nil)
				grants(m, ownerRoleID, errEscalation)
			},
			expectedErr: types.ErrRoleEscalation,
		},
		{
			name: "inactive owner can go",
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				owner := ownerMembership(memberID)
				owner.IsActive = false
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(owner, nil)
				grants(m, ownerRoleID, nil)
				m.storage.EXPECT().SoftDeleteMembership(gomock.Any(), owner.ID, testNow).Return(nil)
				m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "not a member",
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(nil, storage.ErrNotFound)
			},
			expectedErr: types.ErrMemberNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, m := newTestService(ctrl)
			tc.setupMocks(m)

			err := s.RemoveMember(context.Background(), actorID, orgID, memberID)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_AddMember(t *testing.T) {
	email := "grace@example.com"

	testCases := []struct {
		name        string
		req         MemberRequest
		setupMocks  func(*mocks)
		expectedErr error
	}{
		{
			name: "by email known only to the identity provider",
			req:  MemberRequest{Email: email, RoleID: adminRoleID},
			setupMocks: func(m *mocks) {
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), email).Return(nil, storage.ErrNotFound)
				m.kratos.EXPECT().GetIdentityIDByEmail(gomock.Any(), email).Return(memberID, nil)
				m.users.EXPECT().EnsureUser(gomock.Any(), memberID).Return(&types.User{ID: memberID}, nil)
				runInTx(m.storage)
				m.storage.EXPECT().GetRole(gomock.Any(), adminRoleID).Return(&types.Role{ID: adminRoleID}, nil)
				grants(m, adminRoleID, nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(nil, storage.ErrNotFound)
				m.storage.EXPECT().CreateMembership(gomock.Any(), orgID, memberID, adminRoleID).Return(&types.Membership{ID: "m1"}, nil)
				m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "unknown email",
			req:  MemberRequest{Email: email, RoleID: adminRoleID},
			setupMocks: func(m *mocks) {
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), email).Return(nil, storage.ErrNotFound)
				m.kratos.EXPECT().GetIdentityIDByEmail(gomock.Any(), email).Return("", nil)
			},
			expectedErr: types.ErrUserNotFound,
		},
		{
			name: "already active",
			req:  MemberRequest{UserID: memberID, RoleID: adminRoleID},
			setupMocks: func(m *mocks) {
				m.users.EXPECT().EnsureUser(gomock.Any(), memberID).Return(&types.User{ID: memberID}, nil)
				runInTx(m.storage)
				m.storage.EXPECT().GetRole(gomock.Any(), adminRoleID).Return(&types.Role{ID: adminRoleID}, nil)
				grants(m, adminRoleID, nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(&types.Membership{ID: "m1", IsActive: true}, nil)
			},
			expectedErr: types.ErrAlreadyMember,
		},
		{
			name: "reactivates inactive membership",
			req:  MemberRequest{UserID: memberID, RoleID: adminRoleID},
			setupMocks: func(m *mocks) {
				m.users.EXPECT().EnsureUser(gomock.Any(), memberID).Return(&types.User{ID: memberID}, nil)
				runInTx(m.storage)
				m.storage.EXPECT().GetRole(gomock.Any(), adminRoleID).Return(&types.Role{ID: adminRoleID}, nil)
				grants(m, adminRoleID, nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(&types.Membership{ID: "m1", IsActive: false}, nil)
				m.storage.EXPECT().UpdateMembership(gomock.Any(), "m1", gomock.Any(), testNow).DoAndReturn(
					func(_ context.Context, _ string, upd types.MembershipUpdate, _ time.Time) error {
						if upd.IsActive == nil || !*upd.IsActive || upd.RoleID == nil || *upd.RoleID != adminRoleID {
							t.Errorf("unexpected update %+v", upd)
						}
						return nil
					},
				)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, memberID).Return(&types.Membership{ID: "m1", IsActive: true}, nil)
				m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "unknown role",
			req:  MemberRequest{UserID: memberID, RoleID: adminRoleID},
			setupMocks: func(m *mocks) {
				m.users.EXPECT().EnsureUser(gomock.Any(), memberID).Return(&types.User{ID: memberID}, nil)
				runInTx(m.storage)
				m.storage.EXPECT().GetRole(gomock.Any(), adminRoleID).Return(nil, storage.ErrNotFound)
			},
			expectedErr: types.ErrRoleNotFound,
		},
		{
			name: "granting a role beyond the actor's own",
			req:  MemberRequest{UserID: memberID, RoleID: ownerRoleID},
			setupMocks: func(m *mocks) {
				m.users.EXPECT().EnsureUser(gomock.Any(), memberID).Return(&types.User{ID: memberID}, nil)
				runInTx(m.storage)
				m.storage.EXPECT().GetRole(gomock.Any(), ownerRoleID).Return(&types.Role{ID: ownerRoleID, Name: types.RoleOwner}, nil)
				grants(m, ownerRoleID, errEscalation)
			},
			expectedErr: types.ErrRoleEscalation,
		},
		{
			name:        "both id and email",
			req:         MemberRequest{UserID: memberID, Email: email, RoleID: adminRoleID},
			setupMocks:  func(*mocks) {},
			expectedErr: types.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, m := newTestService(ctrl)
			tc.setupMocks(m)

			_, err := s.AddMember(context.Background(), actorID, orgID, tc.req)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_DeleteOrganization(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	gomock.InOrder(
		m.storage.EXPECT().SoftDeleteOrganization(gomock.Any(), orgID, testNow).Return(nil),
		m.storage.EXPECT().SoftDeleteMembershipsByOrganization(gomock.Any(), orgID, testNow).Return(int64(3), nil),
		m.storage.EXPECT().SoftDeleteInvitationsByOrganization(gomock.Any(), orgID, testNow).Return(int64(1), nil),
		m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil),
	)
	runInTx(m.storage)

	if err := s.DeleteOrganization(context.Background(), actorID, orgID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_UpdateOrganizationRejectsUnknownStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, _ := newTestService(ctrl)
	status := types.OrganizationStatus("closed")

	_, err := s.UpdateOrganization(context.Background(), actorID, orgID, types.OrganizationUpdate{Status: &status})
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Acme":                "acme",
		"  Acme  Rockets  ":   "acme-rockets",
		"Ünïcode & Friends!":  "n-code-friends",
		"already-a-slug-2026": "already-a-slug-2026",
	}

	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
		if !validSlug(want) {
			t.Errorf("%q should be a valid slug", want)
		}
	}
}
