// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rbac

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/canonical/organization-service/internal/types"
)

// Catalog is the declarative role and permission set applied by seed-catalog.
// A role's permission list is authoritative: permissions not listed are
// removed from the role.
type Catalog struct {
	Permissions []CatalogPermission `json:"permissions" validate:"dive"`
	Roles       []CatalogRole       `json:"roles" validate:"dive"`
}

type CatalogPermission struct {
	Key         string `json:"key" validate:"required,max=100"`
	Category    string `json:"category" validate:"required,max=50"`
	Description string `json:"description"`
}

type CatalogRole struct {
	Name        string   `json:"name" validate:"required,max=50"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions" validate:"dive,required"`
}

type CatalogResult struct {
	Permissions int `json:"permissions"`
	Roles       int `json:"roles"`
}

// ParseCatalog decodes and validates a JSON catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	c := new(Catalog)
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: malformed catalog: %v", types.ErrValidation, err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrValidation, err)
	}

	seen := make(map[string]struct{}, len(c.Permissions))
	for _, p := range c.Permissions {
		if _, ok := seen[p.Key]; ok {
			return nil, fmt.Errorf("%w: duplicate permission %q", types.ErrValidation, p.Key)
		}
		seen[p.Key] = struct{}{}
	}

	return c, nil
}

// ApplyCatalog upserts every permission and role of c and replaces each
// role's permission set, all in one transaction. Roles may reference
// permissions already in the database.
func (s *Service) ApplyCatalog(ctx context.Context, actorID string, c *Catalog) (*CatalogResult, error) {
	ctx, span := s.tracer.Start(ctx, "rbac.Service.ApplyCatalog")
	defer span.End()

	result := new(CatalogResult)
	err := s.storage.WithTx(ctx, func(ctx context.Context) error {
		for _, p := range c.Permissions {
			if _, err := s.storage.UpsertPermission(ctx, p.Key, p.Category, p.Description); err != nil {
				return fmt.Errorf("failed to upsert permission %s: %w", p.Key, err)
			}
			result.Permissions++
		}

		all, err := s.storage.ListPermissions(ctx)
		if err != nil {
			return err
		}

		byKey := make(map[string]string, len(all))
		for _, p := range all {
			byKey[p.Key] = p.ID
		}

		for _, r := range c.Roles {
			ids := make([]string, 0, len(r.Permissions))
			for _, key := range r.Permissions {
				id, ok := byKey[key]
				if !ok {
					return fmt.Errorf("%w: role %s references unknown permission %q", types.ErrValidation, r.Name, key)
				}
				ids = append(ids, id)
			}

			role, err := s.storage.UpsertRole(ctx, r.Name, r.Description)
			if err != nil {
				return fmt.Errorf("failed to upsert role %s: %w", r.Name, err)
			}

			if _, err := s.SetRolePermissions(ctx, actorID, role.ID, ids); err != nil {
				return fmt.Errorf("failed to set permissions of role %s: %w", r.Name, err)
			}
			result.Roles++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("catalog applied: %d permissions, %d roles", result.Permissions, result.Roles)

	return result, nil
}
