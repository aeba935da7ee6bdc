// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/canonical/organization-service/internal/types"
)

// Permissions is the resolved permission set of the caller in one organization.
type Permissions struct {
	OrganizationID string   `json:"organization_id"`
	Permissions    []string `json:"permissions"`
}

// InvitationDetails is what an invitation token reveals before acceptance.
type InvitationDetails struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organization_id"`
	Email          string                 `json:"email"`
	RoleID         string                 `json:"role_id"`
	Status         types.InvitationStatus `json:"status"`
}

// MyPermissions fetches the caller's permissions in orgID.
func (c *Client) MyPermissions(ctx context.Context, orgID string) (types.PermissionSet, error) {
	if orgID == "" {
		return types.PermissionSet{}, fmt.Errorf("%w: organization id is required", types.ErrValidation)
	}

	out := new(Permissions)
	if err := c.do(ctx, http.MethodGet, "/organizations/my-permissions", orgID, nil, out); err != nil {
		return types.PermissionSet{}, err
	}

	return types.NewPermissionSet(out.Permissions...), nil
}

func (c *Client) Me(ctx context.Context) (*types.User, error) {
	out := new(types.User)
	if err := c.do(ctx, http.MethodGet, "/me", "", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListMyOrganizations(ctx context.Context) ([]*types.Organization, error) {
	var out []*types.Organization
	if err := c.do(ctx, http.MethodGet, "/organizations", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateOrganization(ctx context.Context, name, slug string) (*types.Organization, error) {
	body := map[string]string{"name": name}
	if slug != "" {
		body["slug"] = slug
	}

	out := new(types.Organization)
	if err := c.do(ctx, http.MethodPost, "/organizations", "", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListMembers(ctx context.Context, orgID string) ([]*types.Membership, error) {
	var out []*types.Membership
	if err := c.do(ctx, http.MethodGet, "/organizations/"+escape(orgID)+"/members", orgID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListRoles(ctx context.Context) ([]*types.Role, error) {
	var out []*types.Role
	if err := c.do(ctx, http.MethodGet, "/roles", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) IssueInvitation(ctx context.Context, orgID, email, roleID string) (*types.Invitation, error) {
	body := map[string]string{"email": email, "role_id": roleID}

	out := new(types.Invitation)
	if err := c.do(ctx, http.MethodPost, "/organizations/"+escape(orgID)+"/invitations", orgID, body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ValidateInvitation(ctx context.Context, token string) (*InvitationDetails, error) {
	out := new(InvitationDetails)
	if err := c.do(ctx, http.MethodGet, "/invitations/"+escape(token), "", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AcceptInvitation(ctx context.Context, token string) (*types.Membership, error) {
	out := new(types.Membership)
	if err := c.do(ctx, http.MethodPost, "/invitations/"+escape(token)+"/accept", "", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}
