// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/canonical/organization-service/internal/types"
	"github.com/canonical/organization-service/pkg/client"
)

// rawRequest issues a request for endpoints the REST client does not wrap.
func rawRequest(t *testing.T, method, path, userID string, body interface{}) int {
	t.Helper()
	return rawJSON(t, method, path, userID, body, nil)
}

// rawJSON is rawRequest decoding the data of a successful envelope into out.
func rawJSON(t *testing.T, method, path, userID string, body, out interface{}) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, baseURL()+"/api/v0"+path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Kratos-Authenticated-Identity-Id", userID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < http.StatusBadRequest {
		envelope := struct {
			Data interface{} `json:"data"`
		}{Data: out}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}

	return resp.StatusCode
}

// makePlatformAdmin flips the admin flag directly, there is no API for it.
func makePlatformAdmin(t *testing.T, userID string) {
	t.Helper()

	if _, err := openDB(t).Exec("UPDATE users SET is_admin = TRUE WHERE id = $1", userID); err != nil {
		t.Fatalf("failed to promote %s to platform admin: %v", userID, err)
	}
}

// joinAs invites u into org with role and accepts on their behalf.
func joinAs(t *testing.T, ctx context.Context, inviter *client.Client, org *types.Organization, u testUser, role string) {
	t.Helper()

	invitation, err := inviter.IssueInvitation(ctx, org.ID, u.Email, role)
	if err != nil {
		t.Fatalf("failed to invite %s: %v", u.Email, err)
	}
	if _, err := newTestClient(t, u.ID).AcceptInvitation(ctx, invitation.Token); err != nil {
		t.Fatalf("failed to accept invitation for %s: %v", u.Email, err)
	}
}

func roleID(t *testing.T, c *client.Client, name string) string {
	t.Helper()

	roles, err := c.ListRoles(context.Background())
	if err != nil {
		t.Fatalf("failed to list roles: %v", err)
	}
	for _, r := range roles {
		if r.Name == name {
			return r.ID
		}
	}
	t.Fatalf("role %s not found", name)
	return ""
}

func TestOrganizationLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner := newTestUser(t, "owner")
	outsider := newTestUser(t, "outsider")
	ownerClient := newTestClient(t, owner.ID)
	outsiderClient := newTestClient(t, outsider.ID)

	name := fmt.Sprintf("Acme %d", time.Now().UnixNano())

	var org *types.Organization
	t.Run("Create Organization", func(t *testing.T) {
		var err error
		org, err = ownerClient.CreateOrganization(ctx, name, "")
		if err != nil {
			t.Fatalf("failed to create organization: %v", err)
		}
		if org.ID == "" || org.Slug == "" {
			t.Fatalf("expected id and slug, got %+v", org)
		}
		if org.Status != types.OrganizationActive {
			t.Fatalf("expected active organization, got %s", org.Status)
		}
	})
	if org == nil {
		t.FailNow()
	}

	t.Run("Duplicate Slug Conflicts", func(t *testing.T) {
		_, err := ownerClient.CreateOrganization(ctx, name+" again", org.Slug)
		if !errors.Is(err, types.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("Creator Is Listed As Owner", func(t *testing.T) {
		orgs, err := ownerClient.ListMyOrganizations(ctx)
		if err != nil {
			t.Fatalf("failed to list organizations: %v", err)
		}
		found := false
		for _, o := range orgs {
			found = found || o.ID == org.ID
		}
		if !found {
			t.Fatalf("organization %s not in the creator's list", org.ID)
		}

		members, err := ownerClient.ListMembers(ctx, org.ID)
		if err != nil {
			t.Fatalf("failed to list members: %v", err)
		}
		if len(members) != 1 || members[0].UserID != owner.ID || members[0].RoleName != "Owner" {
			t.Fatalf("expected the creator as sole owner, got %+v", members)
		}
	})

	t.Run("Owner Holds Every Permission", func(t *testing.T) {
		perms, err := ownerClient.MyPermissions(ctx, org.ID)
		if err != nil {
			t.Fatalf("failed to fetch permissions: %v", err)
		}
		for _, key := range []string{types.PermissionOrgDelete, types.PermissionMemberInvite, types.PermissionBillingManage} {
			if !perms.Has(key) {
				t.Errorf("expected owner to hold %s", key)
			}
		}
	})

	t.Run("Outsider Has No Permissions", func(t *testing.T) {
		perms, err := outsiderClient.MyPermissions(ctx, org.ID)
		if err != nil {
			t.Fatalf("failed to fetch permissions: %v", err)
		}
		if !perms.IsEmpty() {
			t.Fatalf("expected empty permission set, got %v", perms.Keys())
		}

		_, err = outsiderClient.ListMembers(ctx, org.ID)
		if !errors.Is(err, types.ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("Last Owner Cannot Be Demoted", func(t *testing.T) {
		memberRole := roleID(t, ownerClient, "Member")
		status := rawRequest(t, http.MethodPatch,
			fmt.Sprintf("/organizations/%s/members/%s", org.ID, owner.ID), owner.ID,
			map[string]string{"role_id": memberRole},
		)
		if status != http.StatusConflict {
			t.Fatalf("expected 409, got %d", status)
		}
	})

	t.Run("Mutations Are Audited", func(t *testing.T) {
		db := openDB(t)

		var n int
		err := db.QueryRowContext(ctx,
			"SELECT count(*) FROM audit_logs WHERE organization_id = $1 AND action = 'organization.created'",
			org.ID,
		).Scan(&n)
		if err != nil {
			t.Fatalf("failed to query audit log: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected one organization.created entry, got %d", n)
		}
	})

	t.Run("Delete Organization", func(t *testing.T) {
		if status := rawRequest(t, http.MethodDelete, "/organizations/"+org.ID, owner.ID, nil); status != http.StatusOK && status != http.StatusNoContent {
			t.Fatalf("expected successful delete, got %d", status)
		}

		perms, err := ownerClient.MyPermissions(ctx, org.ID)
		if err != nil {
			t.Fatalf("failed to fetch permissions: %v", err)
		}
		if !perms.IsEmpty() {
			t.Fatalf("expected no permissions in a deleted organization, got %v", perms.Keys())
		}
	})
}

func TestPermissionCache(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner := newTestUser(t, "cache")
	c := newTestClient(t, owner.ID)

	org, err := c.CreateOrganization(ctx, fmt.Sprintf("Cache %d", time.Now().UnixNano()), "")
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	cache := client.NewPermissionCache(c)
	if cache.HasPermission(org.ID, types.PermissionOrgView) {
		t.Fatal("expected an unloaded cache to deny")
	}

	if err := cache.Load(ctx, org.ID); err != nil {
		t.Fatalf("failed to load cache: %v", err)
	}
	if cache.OrganizationID() != org.ID {
		t.Fatalf("expected cache scoped to %s, got %s", org.ID, cache.OrganizationID())
	}
	if !cache.HasPermission(org.ID, types.PermissionOrgDelete) {
		t.Fatal("expected owner to hold org.delete")
	}

	cache.Invalidate()
	if cache.HasPermission(org.ID, types.PermissionOrgView) {
		t.Fatal("expected an invalidated cache to deny")
	}
}

func TestMemberPromotion(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner := newTestUser(t, "promoter")
	member := newTestUser(t, "promoted")
	admin := newTestUser(t, "admin")
	ownerClient := newTestClient(t, owner.ID)

	org, err := ownerClient.CreateOrganization(ctx, fmt.Sprintf("Promotion %d", time.Now().UnixNano()), "")
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	ownerRole := roleID(t, ownerClient, "Owner")
	joinAs(t, ctx, ownerClient, org, member, roleID(t, ownerClient, "Member"))
	joinAs(t, ctx, ownerClient, org, admin, roleID(t, ownerClient, "Admin"))

	t.Run("Member Cannot Delete", func(t *testing.T) {
		if status := rawRequest(t, http.MethodDelete, "/organizations/"+org.ID, member.ID, nil); status != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", status)
		}
	})

	t.Run("Admin Cannot Grant Owner", func(t *testing.T) {
		for _, target := range []string{admin.ID, member.ID} {
			status := rawRequest(t, http.MethodPatch,
				fmt.Sprintf("/organizations/%s/members/%s", org.ID, target), admin.ID,
				map[string]string{"role_id": ownerRole},
			)
			if status != http.StatusForbidden {
				t.Fatalf("expected 403 promoting %s, got %d", target, status)
			}
		}

		_, err := newTestClient(t, admin.ID).IssueInvitation(ctx, org.ID, fmt.Sprintf("owner-%d@example.com", time.Now().UnixNano()), ownerRole)
		if !errors.Is(err, types.ErrForbidden) {
			t.Fatalf("expected an owner invitation from an admin to be forbidden, got %v", err)
		}
	})

	t.Run("Owner Promotes Member", func(t *testing.T) {
		status := rawRequest(t, http.MethodPatch,
			fmt.Sprintf("/organizations/%s/members/%s", org.ID, member.ID), owner.ID,
			map[string]string{"role_id": ownerRole},
		)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}

		perms, err := newTestClient(t, member.ID).MyPermissions(ctx, org.ID)
		if err != nil {
			t.Fatalf("failed to fetch permissions: %v", err)
		}
		if !perms.Has(types.PermissionOrgDelete) {
			t.Fatalf("expected the promoted member to hold org.delete, got %v", perms.Keys())
		}
	})

	t.Run("Promoted Member Deletes", func(t *testing.T) {
		status := rawRequest(t, http.MethodDelete, "/organizations/"+org.ID, member.ID, nil)
		if status != http.StatusOK && status != http.StatusNoContent {
			t.Fatalf("expected successful delete, got %d", status)
		}
	})
}

func TestSetRolePermissions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin := newTestUser(t, "catalog")
	makePlatformAdmin(t, admin.ID)

	var permissions []*types.Permission
	if status := rawJSON(t, http.MethodGet, "/permissions", admin.ID, nil, &permissions); status != http.StatusOK {
		t.Fatalf("failed to list permissions: %d", status)
	}

	ids := map[string]string{}
	for _, p := range permissions {
		ids[p.Key] = p.ID
	}
	a, b, c := ids[types.PermissionBillingView], ids[types.PermissionBillingManage], ids[types.PermissionOrgView]
	if a == "" || b == "" || c == "" {
		t.Fatalf("catalog is missing seeded permissions: %v", ids)
	}

	var role types.Role
	status := rawJSON(t, http.MethodPost, "/roles", admin.ID,
		map[string]string{"name": fmt.Sprintf("Billing %d", time.Now().UnixNano())}, &role,
	)
	if status != http.StatusCreated && status != http.StatusOK {
		t.Fatalf("failed to create role: %d", status)
	}

	for _, set := range [][]string{{a, b}, {b, c}} {
		status := rawRequest(t, http.MethodPut, "/roles/"+role.ID+"/permissions", admin.ID,
			map[string][]string{"permission_ids": set},
		)
		if status != http.StatusOK && status != http.StatusNoContent {
			t.Fatalf("failed to set role permissions: %d", status)
		}
	}

	rows, err := openDB(t).QueryContext(ctx,
		"SELECT permission_id FROM role_permissions WHERE role_id = $1 ORDER BY permission_id",
		role.ID,
	)
	if err != nil {
		t.Fatalf("failed to read role permissions: %v", err)
	}
	defer rows.Close()

	got := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("failed to scan role permission: %v", err)
		}
		got[id] = true
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("failed to read role permissions: %v", err)
	}

	if len(got) != 2 || !got[b] || !got[c] || got[a] {
		t.Fatalf("expected exactly {%s, %s}, got %v", b, c, got)
	}
}
