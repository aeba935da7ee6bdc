// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDebugLogger(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("DEBUG")
	}()
}

func TestInvalidLevel(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("invalid")
	}()
}

func TestNoopLoggerSecurity(t *testing.T) {
	l := NewNoopLogger()

	l.Security().SystemStartup()
	l.Security().AuthzFailure("user-1", "org.delete")

	if err := l.Sync(); err != nil {
		t.Logf("sync on noop logger returned %v", err)
	}
}

func TestSecurityLoggerFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := newSecurityLogger(zap.New(core))

	s.AdminAction("user-1", "role.permissions.set", "role", "role-1")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["type"] != "security" {
		t.Errorf("expected type security, got %v", fields["type"])
	}
	if fields["entity_id"] != "role-1" {
		t.Errorf("expected entity_id role-1, got %v", fields["entity_id"])
	}
	if fields["event"] != "admin_action:user-1,role.permissions.set" {
		t.Errorf("unexpected event %v", fields["event"])
	}
}

func TestSecurityLoggerNoPermissions(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := newSecurityLogger(zap.New(core))

	s.AuthzFailureNoPermissions("user-1", "org-1")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["event"] != "authz_fail_no_permissions:user-1,org-1" {
		t.Errorf("unexpected event %v", fields["event"])
	}
	if fields["organization_id"] != "org-1" {
		t.Errorf("expected organization_id org-1, got %v", fields["organization_id"])
	}
}
