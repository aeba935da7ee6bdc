// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonical/organization-service/internal/types"
)

var invitationCmd = &cobra.Command{
	Use:   "invitation",
	Short: "Issue, validate and accept invitations",
}

var issueInvitationCmd = &cobra.Command{
	Use:   "issue [organization-id] [email] [role-id]",
	Short: "Invite an email address into an organization",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getClient()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if err := requirePermission(ctx, c, args[0], types.PermissionMemberInvite); err != nil {
			return err
		}

		inv, err := c.IssueInvitation(ctx, args[0], args[1], args[2])
		if err != nil {
			return fmt.Errorf("failed to issue invitation: %w", err)
		}

		fmt.Printf("Invitation issued to %s (ID: %s, expires: %s)\nToken: %s\n", inv.Email, inv.ID, inv.ExpiresAt, inv.Token)
		return nil
	},
}

var validateInvitationCmd = &cobra.Command{
	Use:   "validate [token]",
	Short: "Check whether an invitation token can still be accepted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getClient()
		if err != nil {
			return err
		}

		inv, err := c.ValidateInvitation(context.Background(), args[0])
		switch {
		case errors.Is(err, types.ErrInvitationExpired):
			return fmt.Errorf("invitation expired")
		case err != nil:
			return fmt.Errorf("invitation is not valid: %w", err)
		}

		fmt.Printf("Invitation for %s into organization %s is %s\n", inv.Email, inv.OrganizationID, inv.Status)
		return nil
	},
}

var acceptInvitationCmd = &cobra.Command{
	Use:   "accept [token]",
	Short: "Accept an invitation as the authenticated user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getClient()
		if err != nil {
			return err
		}

		member, err := c.AcceptInvitation(context.Background(), args[0])
		switch {
		case errors.Is(err, types.ErrAlreadyMember):
			fmt.Println("Already a member of this organization, nothing to do")
			return nil
		case err != nil:
			return fmt.Errorf("failed to accept invitation: %w", err)
		}

		fmt.Printf("Joined organization %s as %s\n", member.OrganizationID, member.RoleName)
		return nil
	},
}

func init() {
	invitationCmd.AddCommand(issueInvitationCmd)
	invitationCmd.AddCommand(validateInvitationCmd)
	invitationCmd.AddCommand(acceptInvitationCmd)

	rootCmd.AddCommand(invitationCmd)
}
