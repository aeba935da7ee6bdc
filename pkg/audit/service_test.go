// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/organization-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package audit -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package audit -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package audit -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package audit -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func TestService_Record(t *testing.T) {
	dbErr := errors.New("db error")

	testCases := []struct {
		name        string
		entry       *types.AuditLog
		setupMocks  func(*MockStorageInterface)
		expectedErr error
	}{
		{
			name:  "success",
			entry: Entry("user-1", "org-1", ActionOrganizationCreated, EntityOrganization, "org-1", nil),
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().CreateAuditLog(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, e *types.AuditLog) error {
						if e.ActorID == nil || *e.ActorID != "user-1" {
							t.Errorf("expected actor user-1, got %v", e.ActorID)
						}
						return nil
					},
				)
			},
		},
		{
			name:        "missing action",
			entry:       Entry("user-1", "org-1", "", EntityOrganization, "org-1", nil),
			setupMocks:  func(*MockStorageInterface) {},
			expectedErr: types.ErrValidation,
		},
		{
			name:        "nil entry",
			setupMocks:  func(*MockStorageInterface) {},
			expectedErr: types.ErrValidation,
		},
		{
			name:  "storage error",
			entry: Entry("", "", ActionUserDeleted, EntityUser, "user-1", nil),
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().CreateAuditLog(gomock.Any(), gomock.Any()).Return(dbErr)
			},
			expectedErr: dbErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)

			s := NewService(mockStorage, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "audit.Service.Record").Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockStorage)

			err := s.Record(context.Background(), tc.entry)

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

func TestService_List(t *testing.T) {
	orgID := "org-1"
	logs := []*types.AuditLog{{ID: "a1"}, {ID: "a2"}}
	dbErr := errors.New("db error")

	testCases := []struct {
		name        string
		setupMocks  func(*MockStorageInterface)
		expectedLen int
		expectedErr error
	}{
		{
			name: "success",
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().ListAuditLogs(gomock.Any(), types.AuditFilter{OrganizationID: &orgID, Page: 1, Size: 10}).Return(logs, nil)
			},
			expectedLen: 2,
		},
		{
			name: "storage error",
			setupMocks: func(s *MockStorageInterface) {
				s.EXPECT().ListAuditLogs(gomock.Any(), gomock.Any()).Return(nil, dbErr)
			},
			expectedErr: dbErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)

			s := NewService(mockStorage, mockTracer, NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl))

			mockTracer.EXPECT().Start(gomock.Any(), "audit.Service.List").Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockStorage)

			got, err := s.List(context.Background(), types.AuditFilter{OrganizationID: &orgID, Page: 1, Size: 10})

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if len(got) != tc.expectedLen {
				t.Errorf("expected %d entries, got %d", tc.expectedLen, len(got))
			}
		})
	}
}

func TestEntry(t *testing.T) {
	e := Entry("", "", ActionRoleCreated, EntityRole, "role-1", map[string]interface{}{"name": "Billing"})

	if e.ActorID != nil || e.OrganizationID != nil {
		t.Errorf("expected null actor and organization, got %v %v", e.ActorID, e.OrganizationID)
	}

	if e.Details["name"] != "Billing" {
		t.Errorf("unexpected details %v", e.Details)
	}
}
