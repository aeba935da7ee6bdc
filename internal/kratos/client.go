// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	ory "github.com/ory/client-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/types"
)

// ErrIdentityNotFound is returned when Kratos has no identity for the lookup.
var ErrIdentityNotFound = errors.New("identity not found")

type ClientInterface interface {
	GetIdentity(ctx context.Context, id string) (*types.User, error)
	GetIdentityIDByEmail(ctx context.Context, email string) (string, error)
}

type Client struct {
	client  *ory.APIClient
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewClient(kratosAdminURL string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Client {
	conf := ory.NewConfiguration()
	conf.Servers = ory.ServerConfigurations{{URL: kratosAdminURL}}
	conf.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	return &Client{
		client:  ory.NewAPIClient(conf),
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// GetIdentityIDByEmail returns an empty id when no identity uses the email.
func (c *Client) GetIdentityIDByEmail(ctx context.Context, email string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.GetIdentityIDByEmail")
	defer span.End()

	// NOTE: we are setting an empty page token because of https://github.com/ory/sdk/issues/461
	ids, r, err := c.client.IdentityAPI.ListIdentities(ctx).CredentialsIdentifier(email).PageToken("").Execute()
	if err != nil {
		if r != nil && r.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to list identities: %w", err)
	}

	if len(ids) == 0 {
		return "", nil
	}

	return ids[0].Id, nil
}

// GetIdentity maps a Kratos identity to a local user, reading the email and
// name traits.
func (c *Client) GetIdentity(ctx context.Context, id string) (*types.User, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.GetIdentity")
	defer span.End()

	identity, r, err := c.client.IdentityAPI.GetIdentity(ctx, id).Execute()
	if err != nil {
		if r != nil && r.StatusCode == http.StatusNotFound {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	return UserFromIdentity(identity), nil
}

// UserFromIdentity extracts the user fields from identity traits. The name
// trait may be a plain string or a {first, last} object.
func UserFromIdentity(identity *ory.Identity) *types.User {
	u := &types.User{ID: identity.Id}

	traits, ok := identity.Traits.(map[string]interface{})
	if !ok {
		return u
	}

	if email, ok := traits["email"].(string); ok {
		u.Email = email
	}

	switch name := traits["name"].(type) {
	case string:
		u.Name = name
	case map[string]interface{}:
		parts := make([]string, 0, 2)
		for _, k := range []string{"first", "last"} {
			if v, ok := name[k].(string); ok && v != "" {
				parts = append(parts, v)
			}
		}
		u.Name = strings.Join(parts, " ")
	}

	return u
}

// NoopClient is used when no Kratos admin URL is configured.
type NoopClient struct{}

func (NoopClient) GetIdentity(context.Context, string) (*types.User, error) {
	return nil, ErrIdentityNotFound
}

func (NoopClient) GetIdentityIDByEmail(context.Context, string) (string, error) {
	return "", nil
}

func NewNoopClient() *NoopClient {
	return &NoopClient{}
}
