// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"context"
	"sync"

	"github.com/canonical/organization-service/internal/types"
)

// PermissionCache holds the caller's permission set for one organization at
// a time. It is a hint for failing fast; the server checks every request.
type PermissionCache struct {
	fetcher PermissionFetcherInterface

	mu          sync.RWMutex
	orgID       string
	permissions types.PermissionSet
	loaded      bool
	// generation advances on every Invalidate, a fetch started under an
	// older one is discarded
	generation uint64
}

// Load fetches the permission set of orgID unless it is already cached.
// Switching organization drops the previous set first. A failed fetch
// leaves the cache empty, so every check denies.
func (c *PermissionCache) Load(ctx context.Context, orgID string) error {
	c.mu.RLock()
	cached := c.loaded && c.orgID == orgID
	c.mu.RUnlock()

	if cached {
		return nil
	}

	generation := c.Invalidate()

	permissions, err := c.fetcher.MyPermissions(ctx, orgID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != generation {
		return nil
	}

	c.orgID = orgID
	c.permissions = permissions
	c.loaded = true

	return nil
}

// Reload drops the cached set and fetches it again, e.g. after a role change.
func (c *PermissionCache) Reload(ctx context.Context, orgID string) error {
	c.Invalidate()
	return c.Load(ctx, orgID)
}

// HasPermission reports whether the cached set of orgID contains key. An
// unloaded cache, or one holding another organization, denies.
func (c *PermissionCache) HasPermission(orgID, key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loaded || c.orgID != orgID {
		return false
	}

	return c.permissions.Has(key)
}

// OrganizationID returns the organization of the cached set, if any.
func (c *PermissionCache) OrganizationID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.orgID
}

// Invalidate drops the cached set and returns the new generation.
func (c *PermissionCache) Invalidate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.orgID = ""
	c.permissions = types.PermissionSet{}
	c.loaded = false
	c.generation++

	return c.generation
}

func NewPermissionCache(fetcher PermissionFetcherInterface) *PermissionCache {
	c := new(PermissionCache)
	c.fetcher = fetcher
	return c
}
