// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/types"
)

// Claims are the token claims the service looks at.
type Claims struct {
	Subject  string   `json:"sub"`
	ClientID string   `json:"client_id"`
	Scope    string   `json:"scope"`
	Scopes   []string `json:"scp"`
}

// HasScope checks both the space separated scope claim and the scp array.
func (c Claims) HasScope(scope string) bool {
	return slices.Contains(strings.Fields(c.Scope), scope) || slices.Contains(c.Scopes, scope)
}

// AccessPolicy admits verified tokens. Organization level access is decided
// later by RBAC, so an empty policy admits every subject.
type AccessPolicy struct {
	// AllowedSubjects are service accounts admitted without RequiredScope.
	AllowedSubjects []string
	// RequiredScope must be granted to every other subject when set.
	RequiredScope string
}

func (p AccessPolicy) Admit(c Claims) error {
	if c.Subject == "" {
		return fmt.Errorf("%w: token has no subject", types.ErrUnauthenticated)
	}

	if slices.Contains(p.AllowedSubjects, c.Subject) {
		return nil
	}

	if p.RequiredScope != "" && !c.HasScope(p.RequiredScope) {
		return fmt.Errorf("%w: token lacks scope %s", types.ErrUnauthenticated, p.RequiredScope)
	}

	return nil
}

type JWTVerifier struct {
	verifier *oidc.IDTokenVerifier
	policy   AccessPolicy

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (v *JWTVerifier) VerifyToken(ctx context.Context, rawToken string) (string, error) {
	ctx, span := v.tracer.Start(ctx, "authentication.JWTVerifier.VerifyToken")
	defer span.End()

	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", err
	}

	var claims Claims
	if err := token.Claims(&claims); err != nil {
		v.logger.Debugf("Failed to extract claims: %v", err)
		return "", err
	}

	if err := v.policy.Admit(claims); err != nil {
		v.logger.Security().AuthzFailure(claims.Subject, "organization_api_access")
		return "", err
	}

	return claims.Subject, nil
}

func NewJWTVerifier(
	verifier *oidc.IDTokenVerifier,
	policy AccessPolicy,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *JWTVerifier {
	return &JWTVerifier{
		verifier: verifier,
		policy:   policy,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}
