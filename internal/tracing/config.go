// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/version"
)

const defaultServiceName = "organization-service"

type Config struct {
	ServiceName      string
	ServiceVersion   string
	OtelHTTPEndpoint string
	OtelGRPCEndpoint string
	// SampleRatio is the share of new traces recorded, parent decisions are
	// always honored; values outside (0, 1) record everything
	SampleRatio float64
	Logger      logging.LoggerInterface

	Enabled bool
}

func NewConfig(enabled bool, otelGRPCEndpoint, otelHTTPEndpoint string, sampleRatio float64, logger logging.LoggerInterface) *Config {
	return &Config{
		ServiceName:      defaultServiceName,
		ServiceVersion:   version.Version,
		OtelGRPCEndpoint: otelGRPCEndpoint,
		OtelHTTPEndpoint: otelHTTPEndpoint,
		SampleRatio:      sampleRatio,
		Logger:           logger,
		Enabled:          enabled,
	}
}
