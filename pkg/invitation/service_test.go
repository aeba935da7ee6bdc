// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/storage"
	"github.com/canonical/organization-service/internal/types"
	"github.com/canonical/organization-service/pkg/audit"
)

//go:generate mockgen -build_flags=--mod=mod -package invitation -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package invitation -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package invitation -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package invitation -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

const (
	actorID      = "01900000-0000-7000-8000-0000000000e1"
	inviteeID    = "01900000-0000-7000-8000-0000000000e2"
	orgID        = "01900000-0000-7000-8000-0000000000f1"
	roleID       = "01900000-0000-7000-8000-000000000003"
	invitationID = "01900000-0000-7000-8000-0000000000f9"
	token        = "tok"
	email        = "Invitee@Example.com"
	lifetime     = 7 * 24 * time.Hour
)

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type mocks struct {
	storage    *MockStorageInterface
	users      *MockUsersInterface
	authorizer *MockAuthorizerInterface
	audit      *MockAuditInterface
}

func newTestService(ctrl *gomock.Controller) (*Service, *mocks) {
	m := &mocks{
		storage:    NewMockStorageInterface(ctrl),
		users:      NewMockUsersInterface(ctrl),
		authorizer: NewMockAuthorizerInterface(ctrl),
		audit:      NewMockAuditInterface(ctrl),
	}

	mockTracer := NewMockTracingInterface(ctrl)
	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		Return(context.Background(), trace.SpanFromContext(context.Background())).AnyTimes()

	s := NewService(m.storage, m.users, m.authorizer, m.audit, lifetime, mockTracer, NewMockMonitorInterface(ctrl), logging.NewNoopLogger())
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

func pending(expiresAt time.Time) *types.Invitation {
	return &types.Invitation{
		ID:             invitationID,
		OrganizationID: orgID,
		Email:          email,
		RoleID:         roleID,
		Token:          token,
		Status:         types.InvitationPending,
		ExpiresAt:      expiresAt,
	}
}

func TestService_Issue(t *testing.T) {
	testCases := []struct {
		name        string
		setupMocks  func(*mocks)
		expectedErr error
	}{
		{
			name: "first invitation",
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetRole(gomock.Any(), roleID).Return(&types.Role{ID: roleID}, nil)
				m.authorizer.EXPECT().CanGrantRole(gomock.Any(), actorID, orgID, roleID).Return(nil)
				m.storage.EXPECT().GetInvitationByEmail(gomock.Any(), orgID, email).Return(nil, storage.ErrNotFound)
				m.storage.EXPECT().CreateInvitation(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, inv *types.Invitation) (*types.Invitation, error) {
						if !inv.ExpiresAt.Equal(testNow.Add(lifetime)) {
							t.Errorf("unexpected expiry %s", inv.ExpiresAt)
						}
						raw, err := base64.RawURLEncoding.DecodeString(inv.Token)
						if err != nil || len(raw) != tokenBytes {
							t.Errorf("unexpected token %q", inv.Token)
						}
						inv.ID = invitationID
						inv.Status = types.InvitationPending
						return inv, nil
					},
				)
				m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, e *types.AuditLog) error {
						if e.Action != audit.ActionInvitationIssued {
							t.Errorf("unexpected action %s", e.Action)
						}
						if _, leaked := e.Details["token"]; leaked {
							t.Error("token must not be audited")
						}
						return nil
					},
				)
			},
		},
		{
			name: "live pending invitation",
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetRole(gomock.Any(), roleID).Return(&types.Role{ID: roleID}, nil)
				m.authorizer.EXPECT().CanGrantRole(gomock.Any(), actorID, orgID, roleID).Return(nil)
				m.storage.EXPECT().GetInvitationByEmail(gomock.Any(), orgID, email).Return(pending(testNow.Add(time.Hour)), nil)
			},
			expectedErr: types.ErrPendingInvite,
		},
		{
			name: "overdue pending predecessor is replaced",
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetRole(gomock.Any(), roleID).Return(&types.Role{ID: roleID}, nil)
				m.authorizer.EXPECT().CanGrantRole(gomock.Any(), actorID, orgID, roleID).Return(nil)
				m.storage.EXPECT().GetInvitationByEmail(gomock.Any(), orgID, email).Return(pending(testNow.Add(-time.Hour)), nil)
				m.storage.EXPECT().SoftDeleteInvitation(gomock.Any(), invitationID, testNow).Return(nil)
				m.storage.EXPECT().CreateInvitation(gomock.Any(), gomock.Any()).Return(&types.Invitation{ID: "new"}, nil)
				m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "accepted predecessor is replaced",
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				accepted := pending(testNow.Add(time.Hour))
				accepted.Status = types.InvitationAccepted
				m.storage.EXPECT().GetRole(gomock.Any(), roleID).Return(&types.Role{ID: roleID}, nil)
				m.authorizer.EXPECT().CanGrantRole(gomock.Any(), actorID, orgID, roleID).Return(nil)
				m.storage.EXPECT().GetInvitationByEmail(gomock.Any(), orgID, email).Return(accepted, nil)
				m.storage.EXPECT().SoftDeleteInvitation(gomock.Any(), invitationID, testNow).Return(nil)
				m.storage.EXPECT().CreateInvitation(gomock.Any(), gomock.Any()).Return(&types.Invitation{ID: "new"}, nil)
				m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "role beyond the inviter's own",
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetRole(gomock.Any(), roleID).Return(&types.Role{ID: roleID}, nil)
				m.authorizer.EXPECT().CanGrantRole(gomock.Any(), actorID, orgID, roleID).Return(types.ErrRoleEscalation)
			},
			expectedErr: types.ErrForbidden,
		},
		{
			name: "unknown role",
			setupMocks: func(m *mocks) {
				runInTx(m.storage)
				m.storage.EXPECT().GetRole(gomock.Any(), roleID).Return(nil, storage.ErrNotFound)
			},
			expectedErr: types.ErrRoleNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, m := newTestService(ctrl)
			tc.setupMocks(m)

			_, err := s.Issue(context.Background(), actorID, orgID, " "+email+" ", roleID)

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

func TestService_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		token       string
		setupMocks  func(*mocks)
		expectedErr error
	}{
		{
			name:  "pending",
			token: token,
			setupMocks: func(m *mocks) {
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(pending(testNow.Add(time.Minute)), nil)
			},
		},
		{
			name:  "unknown token",
			token: token,
			setupMocks: func(m *mocks) {
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(nil, storage.ErrNotFound)
			},
			expectedErr: types.ErrInvitationInvalid,
		},
		{
			name:        "empty token",
			setupMocks:  func(*mocks) {},
			expectedErr: types.ErrInvitationInvalid,
		},
		{
			name:  "already accepted",
			token: token,
			setupMocks: func(m *mocks) {
				inv := pending(testNow.Add(time.Minute))
				inv.Status = types.InvitationAccepted
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(inv, nil)
			},
			expectedErr: types.ErrInvitationProcessed,
		},
		{
			name:  "lazily expired at the exact deadline",
			token: token,
			setupMocks: func(m *mocks) {
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(pending(testNow), nil)
				m.storage.EXPECT().ExpireInvitation(gomock.Any(), invitationID, testNow).Return(true, nil)
			},
			expectedErr: types.ErrInvitationExpired,
		},
		{
			name:  "already expired",
			token: token,
			setupMocks: func(m *mocks) {
				inv := pending(testNow.Add(-time.Hour))
				inv.Status = types.InvitationExpired
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(inv, nil)
			},
			expectedErr: types.ErrInvitationExpired,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, m := newTestService(ctrl)
			tc.setupMocks(m)

			inv, err := s.Validate(context.Background(), tc.token)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}

			if err != nil || inv.ID != invitationID {
				t.Errorf("unexpected result %v, %v", inv, err)
			}
		})
	}
}

func TestService_Accept(t *testing.T) {
	invitee := &types.User{ID: inviteeID, Email: "invitee@example.com"}

	testCases := []struct {
		name        string
		setupMocks  func(*mocks)
		expectedErr error
	}{
		{
			name: "creates the membership",
			setupMocks: func(m *mocks) {
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(pending(testNow.Add(time.Hour)), nil)
				m.users.EXPECT().EnsureUser(gomock.Any(), inviteeID).Return(invitee, nil)
				runInTx(m.storage)
				m.storage.EXPECT().MarkInvitationAccepted(gomock.Any(), invitationID, inviteeID, testNow).Return(true, nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, inviteeID).Return(nil, storage.ErrNotFound)
				m.storage.EXPECT().CreateMembership(gomock.Any(), orgID, inviteeID, roleID).Return(&types.Membership{ID: "m1"}, nil)
				m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "reactivates an inactive membership with the invited role",
			setupMocks: func(m *mocks) {
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(pending(testNow.Add(time.Hour)), nil)
				m.users.EXPECT().EnsureUser(gomock.Any(), inviteeID).Return(invitee, nil)
				runInTx(m.storage)
				m.storage.EXPECT().MarkInvitationAccepted(gomock.Any(), invitationID, inviteeID, testNow).Return(true, nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, inviteeID).Return(&types.Membership{ID: "m1", IsActive: false}, nil)
				m.storage.EXPECT().UpdateMembership(gomock.Any(), "m1", gomock.Any(), testNow).Return(nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, inviteeID).Return(&types.Membership{ID: "m1", IsActive: true}, nil)
				m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "already an active member",
			setupMocks: func(m *mocks) {
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(pending(testNow.Add(time.Hour)), nil)
				m.users.EXPECT().EnsureUser(gomock.Any(), inviteeID).Return(invitee, nil)
				runInTx(m.storage)
				m.storage.EXPECT().MarkInvitationAccepted(gomock.Any(), invitationID, inviteeID, testNow).Return(true, nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), orgID, inviteeID).Return(&types.Membership{ID: "m1", IsActive: true}, nil)
			},
			expectedErr: types.ErrAlreadyMember,
		},
		{
			name: "email mismatch",
			setupMocks: func(m *mocks) {
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(pending(testNow.Add(time.Hour)), nil)
				m.users.EXPECT().EnsureUser(gomock.Any(), inviteeID).Return(&types.User{ID: inviteeID, Email: "someone@example.com"}, nil)
			},
			expectedErr: types.ErrEmailMismatch,
		},
		{
			name: "accepted twice",
			setupMocks: func(m *mocks) {
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(pending(testNow.Add(time.Hour)), nil)
				m.users.EXPECT().EnsureUser(gomock.Any(), inviteeID).Return(invitee, nil)
				runInTx(m.storage)
				m.storage.EXPECT().MarkInvitationAccepted(gomock.Any(), invitationID, inviteeID, testNow).Return(false, nil)
				accepted := pending(testNow.Add(time.Hour))
				accepted.Status = types.InvitationAccepted
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(accepted, nil)
			},
			expectedErr: types.ErrInvitationProcessed,
		},
		{
			name: "expired before the transition",
			setupMocks: func(m *mocks) {
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(pending(testNow.Add(time.Hour)), nil)
				m.users.EXPECT().EnsureUser(gomock.Any(), inviteeID).Return(invitee, nil)
				runInTx(m.storage)
				m.storage.EXPECT().MarkInvitationAccepted(gomock.Any(), invitationID, inviteeID, testNow).Return(false, nil)
				expired := pending(testNow.Add(-time.Hour))
				expired.Status = types.InvitationExpired
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(expired, nil)
			},
			expectedErr: types.ErrInvitationExpired,
		},
		{
			name: "expired token",
			setupMocks: func(m *mocks) {
				m.storage.EXPECT().GetInvitationByToken(gomock.Any(), token).Return(pending(testNow.Add(-time.Second)), nil)
				m.storage.EXPECT().ExpireInvitation(gomock.Any(), invitationID, testNow).Return(true, nil)
			},
			expectedErr: types.ErrInvitationExpired,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s, m := newTestService(ctrl)
			tc.setupMocks(m)

			member, err := s.Accept(context.Background(), token, inviteeID)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}

			if err != nil || member == nil {
				t.Errorf("unexpected result %v, %v", member, err)
			}
		})
	}
}

func TestService_Cancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	runInTx(m.storage)
	m.storage.EXPECT().GetInvitation(gomock.Any(), orgID, invitationID).Return(pending(testNow.Add(time.Hour)), nil)
	m.storage.EXPECT().SoftDeleteInvitation(gomock.Any(), invitationID, testNow).Return(nil)
	m.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

	if err := s.Cancel(context.Background(), actorID, orgID, invitationID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)

	overdue := pending(testNow.Add(-time.Minute))
	live := pending(testNow.Add(time.Minute))
	m.storage.EXPECT().ListInvitations(gomock.Any(), orgID).Return([]*types.Invitation{overdue, live}, nil)

	got, err := s.List(context.Background(), orgID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got[0].Status != types.InvitationExpired || got[1].Status != types.InvitationPending {
		t.Errorf("unexpected statuses %s %s", got[0].Status, got[1].Status)
	}

	for _, i := range got {
		if i.Token != "" {
			t.Error("tokens must not be listed")
		}
	}
}

func TestService_ExpireStale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, m := newTestService(ctrl)
	m.storage.EXPECT().ExpireStaleInvitations(gomock.Any(), testNow).Return(int64(4), nil)

	n, err := s.ExpireStale(context.Background())
	if err != nil || n != 4 {
		t.Errorf("unexpected result %d, %v", n, err)
	}
}

func TestNewTokenIsUnique(t *testing.T) {
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		tok, err := newToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %s", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestSweep(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	mockSvc := NewMockServiceInterface(ctrl)
	mockSvc.EXPECT().ExpireStale(gomock.Any()).DoAndReturn(func(context.Context) (int64, error) {
		cancel()
		return 0, nil
	}).MinTimes(1)

	done := make(chan struct{})
	go func() {
		Sweep(ctx, mockSvc, time.Millisecond, logging.NewNoopLogger())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
