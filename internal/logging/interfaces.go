// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

type LoggerInterface interface {
	Errorf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Debugf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})
	Error(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Debug(args ...interface{})
	Fatal(args ...interface{})
	Security() SecurityLoggerInterface
	Sync() error
}

// SecurityLoggerInterface emits security relevant events on a dedicated channel
type SecurityLoggerInterface interface {
	SystemStartup()
	SystemShutdown()
	AuthzFailure(userID, resource string)
	AuthzFailureNoPermissions(userID, organizationID string)
	AdminAction(userID, action, entityType, entityID string)
}
