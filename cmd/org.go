// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/canonical/organization-service/internal/types"
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Manage organizations",
}

var createOrgCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an organization owned by the caller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getClient()
		if err != nil {
			return err
		}

		slug, _ := cmd.Flags().GetString("slug")

		org, err := c.CreateOrganization(context.Background(), args[0], slug)
		if err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}

		fmt.Printf("Organization created: %s (ID: %s, slug: %s)\n", org.Name, org.ID, org.Slug)
		return nil
	},
}

var listOrgsCmd = &cobra.Command{
	Use:   "list",
	Short: "List organizations of the authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getClient()
		if err != nil {
			return err
		}

		orgs, err := c.ListMyOrganizations(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list organizations: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSLUG\tSTATUS\tCREATED_AT")
		for _, o := range orgs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.Name, o.Slug, o.Status, o.CreatedAt)
		}
		w.Flush()
		return nil
	},
}

var listMembersCmd = &cobra.Command{
	Use:   "members [organization-id]",
	Short: "List members of an organization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getClient()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if err := requirePermission(ctx, c, args[0], types.PermissionMemberView); err != nil {
			return err
		}

		members, err := c.ListMembers(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "USER_ID\tEMAIL\tROLE\tACTIVE\tCREATED_AT")
		for _, m := range members {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", m.UserID, m.Email, m.RoleName, m.IsActive, m.CreatedAt)
		}
		w.Flush()
		return nil
	},
}

var myPermissionsCmd = &cobra.Command{
	Use:   "permissions [organization-id]",
	Short: "Show the caller's permissions in an organization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getClient()
		if err != nil {
			return err
		}

		permissions, err := c.MyPermissions(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve permissions: %w", err)
		}

		if permissions.IsEmpty() {
			fmt.Println("No permissions, the caller is not an active member")
			return nil
		}

		for _, key := range permissions.Keys() {
			fmt.Println(key)
		}
		return nil
	},
}

func init() {
	createOrgCmd.Flags().String("slug", "", "URL slug, derived from the name when empty")

	orgCmd.AddCommand(createOrgCmd)
	orgCmd.AddCommand(listOrgsCmd)
	orgCmd.AddCommand(listMembersCmd)
	orgCmd.AddCommand(myPermissionsCmd)

	rootCmd.AddCommand(orgCmd)
}
