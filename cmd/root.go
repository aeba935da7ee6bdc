// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// client flags shared by the org, invitation and client commands
var (
	userID       string
	accessToken  string
	httpEndpoint string
)

var rootCmd = &cobra.Command{
	Use:   "organization-service",
	Short: "Organizations, roles and invitations for the identity platform",
	Long: `organization-service runs the organization API and ships the tooling around it:
database migrations, permission catalog seeding and a command line client.`,
	SilenceUsage: true,
}

// Execute runs the root command, it is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&httpEndpoint, "http-endpoint", "http://localhost:8080", "Organization API endpoint")
	flags.StringVar(&accessToken, "token", os.Getenv("ORGANIZATION_SERVICE_TOKEN"), "Bearer token, see the token command")
	flags.StringVar(&userID, "user-id", "", "Identity ID sent in the identity header when authentication is disabled")
}
