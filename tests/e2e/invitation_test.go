// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package e2e

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/canonical/organization-service/internal/types"
)

func TestInvitationFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	owner := newTestUser(t, "inviter")
	invitee := newTestUser(t, "invitee")
	stranger := newTestUser(t, "stranger")

	ownerClient := newTestClient(t, owner.ID)
	inviteeClient := newTestClient(t, invitee.ID)
	anonymous := newTestClient(t, "")

	org, err := ownerClient.CreateOrganization(ctx, fmt.Sprintf("Invites %d", time.Now().UnixNano()), "")
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}
	memberRole := roleID(t, ownerClient, "Member")

	invitation, err := ownerClient.IssueInvitation(ctx, org.ID, invitee.Email, memberRole)
	if err != nil {
		t.Fatalf("failed to issue invitation: %v", err)
	}
	if invitation.Token == "" {
		t.Fatal("expected the issued invitation to carry its token")
	}

	t.Run("Duplicate Pending Invitation Conflicts", func(t *testing.T) {
		_, err := ownerClient.IssueInvitation(ctx, org.ID, invitee.Email, memberRole)
		if !errors.Is(err, types.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("Validate Without Identity", func(t *testing.T) {
		details, err := anonymous.ValidateInvitation(ctx, invitation.Token)
		if err != nil {
			t.Fatalf("failed to validate invitation: %v", err)
		}
		if details.OrganizationID != org.ID || details.Status != types.InvitationPending {
			t.Fatalf("unexpected invitation details %+v", details)
		}
	})

	t.Run("Unknown Token Is Not Found", func(t *testing.T) {
		_, err := anonymous.ValidateInvitation(ctx, "does-not-exist")
		if !errors.Is(err, types.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("Email Mismatch Is Forbidden", func(t *testing.T) {
		_, err := newTestClient(t, stranger.ID).AcceptInvitation(ctx, invitation.Token)
		if !errors.Is(err, types.ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("Accept", func(t *testing.T) {
		member, err := inviteeClient.AcceptInvitation(ctx, invitation.Token)
		if err != nil {
			t.Fatalf("failed to accept invitation: %v", err)
		}
		if member.OrganizationID != org.ID || member.RoleID != memberRole || !member.IsActive {
			t.Fatalf("unexpected membership %+v", member)
		}

		perms, err := inviteeClient.MyPermissions(ctx, org.ID)
		if err != nil {
			t.Fatalf("failed to fetch permissions: %v", err)
		}
		if !perms.Has(types.PermissionOrgView) || perms.Has(types.PermissionOrgDelete) {
			t.Fatalf("unexpected member permissions %v", perms.Keys())
		}
	})

	t.Run("Accept Twice Conflicts", func(t *testing.T) {
		_, err := inviteeClient.AcceptInvitation(ctx, invitation.Token)
		if !errors.Is(err, types.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}

		members, err := ownerClient.ListMembers(ctx, org.ID)
		if err != nil {
			t.Fatalf("failed to list members: %v", err)
		}
		if len(members) != 2 {
			t.Fatalf("expected exactly two members, got %d", len(members))
		}
	})

	t.Run("Expired Invitation", func(t *testing.T) {
		email := fmt.Sprintf("late-%d@example.com", time.Now().UnixNano())
		late, err := ownerClient.IssueInvitation(ctx, org.ID, email, memberRole)
		if err != nil {
			t.Fatalf("failed to issue invitation: %v", err)
		}

		db := openDB(t)
		if _, err := db.ExecContext(ctx, "UPDATE invitations SET expires_at = now() - interval '1 minute' WHERE id = $1", late.ID); err != nil {
			t.Fatalf("failed to backdate invitation: %v", err)
		}

		_, err = anonymous.ValidateInvitation(ctx, late.Token)
		if !errors.Is(err, types.ErrInvitationExpired) {
			t.Fatalf("expected expired, got %v", err)
		}

		var status string
		if err := db.QueryRowContext(ctx, "SELECT status FROM invitations WHERE id = $1", late.ID).Scan(&status); err != nil {
			t.Fatalf("failed to read invitation: %v", err)
		}
		if status != string(types.InvitationExpired) {
			t.Fatalf("expected the lookup to persist the expiry, got %s", status)
		}
	})

	t.Run("Registration Accepts Invitation", func(t *testing.T) {
		id, err := uuid.NewV7()
		if err != nil {
			t.Fatalf("failed to generate user id: %v", err)
		}
		email := fmt.Sprintf("signup-%s@example.com", id.String()[:8])

		pending, err := ownerClient.IssueInvitation(ctx, org.ID, email, memberRole)
		if err != nil {
			t.Fatalf("failed to issue invitation: %v", err)
		}

		registerUser(t, id.String(), email, pending.Token)

		perms, err := newTestClient(t, id.String()).MyPermissions(ctx, org.ID)
		if err != nil {
			t.Fatalf("failed to fetch permissions: %v", err)
		}
		if !perms.Has(types.PermissionOrgView) {
			t.Fatalf("expected the registered user to be a member, got %v", perms.Keys())
		}
	})
}

func TestInvitationInviterDeleted(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	inviter := newTestUser(t, "leaving")
	inviterClient := newTestClient(t, inviter.ID)

	org, err := inviterClient.CreateOrganization(ctx, fmt.Sprintf("Leaving %d", time.Now().UnixNano()), "")
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	invitation, err := inviterClient.IssueInvitation(ctx, org.ID, fmt.Sprintf("orphan-%d@example.com", time.Now().UnixNano()), roleID(t, inviterClient, "Member"))
	if err != nil {
		t.Fatalf("failed to issue invitation: %v", err)
	}

	db := openDB(t)

	var invitedBy sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT invited_by FROM invitations WHERE id = $1", invitation.ID).Scan(&invitedBy); err != nil {
		t.Fatalf("failed to read invitation: %v", err)
	}
	if invitedBy.String != inviter.ID {
		t.Fatalf("expected invited_by %s, got %v", inviter.ID, invitedBy)
	}

	if status := rawRequest(t, http.MethodDelete, "/me", inviter.ID, nil); status != http.StatusOK && status != http.StatusNoContent {
		t.Fatalf("failed to delete account: %d", status)
	}

	var deletedAt sql.NullTime
	err = db.QueryRowContext(ctx,
		"SELECT i.invited_by, u.deleted_at FROM invitations i JOIN users u ON u.id = $2 WHERE i.id = $1",
		invitation.ID, inviter.ID,
	).Scan(&invitedBy, &deletedAt)
	if err != nil {
		t.Fatalf("failed to read invitation: %v", err)
	}
	if !deletedAt.Valid {
		t.Fatal("expected the user row to be soft deleted")
	}
	if invitedBy.Valid {
		t.Fatalf("expected invited_by to be cleared, got %s", invitedBy.String)
	}

	details, err := newTestClient(t, "").ValidateInvitation(ctx, invitation.Token)
	if err != nil {
		t.Fatalf("expected the invitation to outlive its inviter, got %v", err)
	}
	if details.Status != types.InvitationPending {
		t.Fatalf("expected a pending invitation, got %s", details.Status)
	}
}

func TestInvitationConcurrentAccept(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner := newTestUser(t, "racer")
	invitee := newTestUser(t, "raced")
	ownerClient := newTestClient(t, owner.ID)

	org, err := ownerClient.CreateOrganization(ctx, fmt.Sprintf("Race %d", time.Now().UnixNano()), "")
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	invitation, err := ownerClient.IssueInvitation(ctx, org.ID, invitee.Email, roleID(t, ownerClient, "Member"))
	if err != nil {
		t.Fatalf("failed to issue invitation: %v", err)
	}

	const attempts = 4

	start := make(chan struct{})
	errs := make(chan error, attempts)

	inviteeClient := newTestClient(t, invitee.ID)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := inviteeClient.AcceptInvitation(ctx, invitation.Token)
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, types.ErrConflict):
		default:
			t.Errorf("expected success or conflict, got %v", err)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one accept to succeed, got %d", accepted)
	}

	var memberships int
	err = openDB(t).QueryRowContext(ctx,
		"SELECT count(*) FROM organization_members WHERE organization_id = $1 AND user_id = $2 AND deleted_at IS NULL",
		org.ID, invitee.ID,
	).Scan(&memberships)
	if err != nil {
		t.Fatalf("failed to count memberships: %v", err)
	}
	if memberships != 1 {
		t.Fatalf("expected one membership, got %d", memberships)
	}
}
