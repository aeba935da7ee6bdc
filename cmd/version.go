// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/canonical/organization-service/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the service version",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		if format == "json" {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
				"version":  version.Version,
				"revision": version.Revision(),
				"go":       runtime.Version(),
			})
		}

		fmt.Fprintf(cmd.OutOrStdout(), "organization-service %s (%s, %s)\n", version.Version, version.Revision(), runtime.Version())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringP("format", "f", "text", "Output format (text or json)")
}
