// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"fmt"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
)

// NewJWTAuthenticator returns a verifier for bearer tokens issued by issuer
// and admitted by policy.
func NewJWTAuthenticator(
	ctx context.Context,
	issuer string,
	jwksURL string,
	policy AccessPolicy,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) (TokenVerifierInterface, error) {
	if issuer == "" {
		return nil, fmt.Errorf("issuer is required for JWT authentication")
	}

	idTokenVerifier, err := newIDTokenVerifier(ctx, issuer, jwksURL)
	if err != nil {
		return nil, err
	}

	if jwksURL != "" {
		logger.Infof("JWT authentication enabled for %s with JWKS %s", issuer, jwksURL)
	} else {
		logger.Infof("JWT authentication enabled for %s with OIDC discovery", issuer)
	}
	if policy.RequiredScope != "" {
		logger.Infof("tokens must carry scope %s unless issued to one of %d service accounts", policy.RequiredScope, len(policy.AllowedSubjects))
	}

	return NewJWTVerifier(idTokenVerifier, policy, tracer, monitor, logger), nil
}
