// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"

	"github.com/canonical/organization-service/pkg/client"
)

// getClient builds a REST client from the global flags.
func getClient() (*client.Client, error) {
	opts := []client.ClientOption{}
	if accessToken != "" {
		opts = append(opts, client.WithBearerToken(accessToken))
	}
	if userID != "" {
		opts = append(opts, client.WithIdentity(userID))
	}

	c, err := client.NewClient(httpEndpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	return c, nil
}

// requirePermission loads the caller's permissions in orgID and fails fast
// when key is missing. The server still checks the request.
func requirePermission(ctx context.Context, c *client.Client, orgID, key string) error {
	cache := client.NewPermissionCache(c)
	if err := cache.Load(ctx, orgID); err != nil {
		return fmt.Errorf("failed to load permissions: %w", err)
	}

	if !cache.HasPermission(orgID, key) {
		return fmt.Errorf("missing permission %q in organization %s", key, orgID)
	}
	return nil
}
