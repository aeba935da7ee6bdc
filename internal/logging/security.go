// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

const (
	securityAppID = "organization-service"

	eventSysStartup         = "sys_startup"
	eventSysShutdown        = "sys_shutdown"
	eventAuthzFail          = "authz_fail"
	eventAuthzNoPermissions = "authz_fail_no_permissions"
	eventAdminAction        = "admin_action"
)

var _ SecurityLoggerInterface = (*SecurityLogger)(nil)

// SecurityLogger logs events following the OWASP logging vocabulary
type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) SystemStartup() {
	s.log(eventSysStartup, "system started")
}

func (s *SecurityLogger) SystemShutdown() {
	s.log(eventSysShutdown, "system shutting down")
}

func (s *SecurityLogger) AuthzFailure(userID, resource string) {
	s.log(eventAuthzFail+":"+userID+","+resource, "user not authorized to access resource",
		zap.String("user_id", userID),
		zap.String("resource", resource),
	)
}

// AuthzFailureNoPermissions records a user holding nothing in the
// organization: no effective membership, or a role granting no permission.
func (s *SecurityLogger) AuthzFailureNoPermissions(userID, organizationID string) {
	s.log(eventAuthzNoPermissions+":"+userID+","+organizationID, "user holds no permissions in the organization",
		zap.String("user_id", userID),
		zap.String("organization_id", organizationID),
	)
}

func (s *SecurityLogger) AdminAction(userID, action, entityType, entityID string) {
	s.log(eventAdminAction+":"+userID+","+action, "privileged mutation",
		zap.String("user_id", userID),
		zap.String("action", action),
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID),
	)
}

func (s *SecurityLogger) log(event, description string, fields ...zap.Field) {
	fields = append(
		fields,
		zap.String("appid", securityAppID),
		zap.String("event", event),
		zap.String("type", "security"),
	)
	s.l.Warn(description, fields...)
}

func newSecurityLogger(l *zap.Logger) *SecurityLogger {
	return &SecurityLogger{l: l.Named("security")}
}
