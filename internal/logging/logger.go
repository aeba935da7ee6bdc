// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ LoggerInterface = (*Logger)(nil)

// Logger wraps a sugared zap logger and adds a security event logger
type Logger struct {
	*zap.SugaredLogger

	security *SecurityLogger
}

func (l *Logger) Security() SecurityLoggerInterface {
	return l.security
}

// NewLogger creates a JSON logger with the given level, defaulting to error
// if the level cannot be parsed
func NewLogger(l string) *Logger {
	var lvl zapcore.Level

	switch strings.ToLower(l) {
	case "debug":
		lvl = zap.DebugLevel
	case "info":
		lvl = zap.InfoLevel
	case "warning", "warn":
		lvl = zap.WarnLevel
	case "error":
		lvl = zap.ErrorLevel
	default:
		lvl = zap.ErrorLevel
	}

	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(lvl)
	c.EncoderConfig.TimeKey = "@timestamp"
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := c.Build()
	if err != nil {
		panic(err)
	}

	logger := new(Logger)
	logger.SugaredLogger = zl.Sugar()
	logger.security = newSecurityLogger(zl)

	logger.Debugf("logger initialized with level %s", lvl)

	return logger
}
