// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/canonical/organization-service/internal/types"
	"github.com/canonical/organization-service/migrations"
)

// migrateCmd performs DB migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Apply, roll back or inspect the embedded organization schema migrations: up, down [version], status, check`,
	Args:  customValidArgs(),
	Run:   runMigrate(),
}

func customValidArgs() func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return nil
		}

		if err := cobra.RangeArgs(0, 2)(cmd, args); err != nil {
			return err
		}

		first := args[0]
		switch first {
		case "up", "down", "status", "check":
			// valid first argument
		default:
			return fmt.Errorf("invalid first argument: %q", first)
		}

		// If two arguments are provided, the first must be "down" and second a non-negative int
		if len(args) == 2 {
			if first != "down" {
				return fmt.Errorf("invalid argument combination: %q", args)
			}

			if version, err := strconv.Atoi(args[1]); err != nil || version < 0 {
				return fmt.Errorf("invalid version number: %q", args[1])
			}
		}

		return nil
	}
}

func runMigrate() func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		command := "up"
		if len(args) > 0 {
			command = args[0]
		}

		version := -1
		if len(args) > 1 {
			version, _ = strconv.Atoi(args[1])
		}

		dsn, _ := cmd.Flags().GetString("dsn")
		if dsn == "" {
			dsn = os.Getenv("DSN")
		}
		if dsn == "" {
			cmd.PrintErrln("a DSN is required, set --dsn or the DSN environment variable")
			os.Exit(1)
		}
		format, _ := cmd.Flags().GetString("format")

		if err := migrate(cmd, dsn, command, format, version); err != nil {
			cmd.PrintErr(err)
			os.Exit(1)
		}
	}
}

func init() {
	migrateCmd.Flags().String("dsn", "", "PostgreSQL DSN connection string, defaults to the DSN environment variable")
	migrateCmd.Flags().StringP("format", "f", "text", "Output format (text or json)")

	rootCmd.AddCommand(migrateCmd)
}

func migrate(cmd *cobra.Command, dsn, command, format string, version int) error {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("DSN validation failed, shutting down, err: %v", err)
	}

	db := stdlib.OpenDB(*config)
	defer db.Close()

	if err := db.PingContext(cmd.Context()); err != nil {
		return fmt.Errorf("DB connection failed, shutting down, err: %v", err)
	}
	var opts []goose.ProviderOption
	if format == "json" {
		opts = append(opts, goose.WithLogger(goose.NopLogger()))
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.EmbedMigrations, opts...)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch command {
	case "up":
		return runUp(ctx, provider, format, out)
	case "down":
		return runDown(ctx, provider, version, format, out)
	case "status":
		return runStatus(ctx, provider, format, out)
	case "check":
		return runCheck(ctx, db, provider, format, out)
	}

	return nil
}

func runUp(ctx context.Context, provider *goose.Provider, format string, out io.Writer) error {
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	return printResults(out, format, results)
}

func runDown(ctx context.Context, provider *goose.Provider, version int, format string, out io.Writer) error {
	var results []*goose.MigrationResult
	var err error

	if version == -1 {
		var result *goose.MigrationResult
		result, err = provider.Down(ctx)
		if err == nil {
			results = append(results, result)
		}
	} else {
		results, err = provider.DownTo(ctx, int64(version))
	}

	if err != nil {
		return err
	}

	return printResults(out, format, results)
}

func printResults(out io.Writer, format string, results []*goose.MigrationResult) error {
	if format == "json" {
		if results == nil {
			results = []*goose.MigrationResult{}
		}
		return json.NewEncoder(out).Encode(map[string]interface{}{
			"applied": results,
		})
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "no migrations to apply")
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(out, "%-4s %-40s %s\n", r.Direction, r.Source.Path, r.Duration)
	}
	return nil
}

func runStatus(ctx context.Context, provider *goose.Provider, format string, out io.Writer) error {
	statuses, err := provider.Status(ctx)
	if err != nil {
		return err
	}
	if format == "json" {
		return json.NewEncoder(out).Encode(statuses)
	}

	fmt.Fprintf(out, "%-26s %s\n", "APPLIED AT", "MIGRATION")
	for _, s := range statuses {
		appliedAt := "pending"
		if s.State == goose.StateApplied {
			appliedAt = s.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%-26s %s\n", appliedAt, s.Source.Path)
	}
	return nil
}

// runCheck fails when migrations are pending or a built-in role is missing.
func runCheck(ctx context.Context, db *sql.DB, provider *goose.Provider, format string, out io.Writer) error {
	hasPending, err := provider.HasPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to check pending migrations: %w", err)
	}

	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	missing, err := missingSystemRoles(ctx, db)
	if err != nil {
		return err
	}

	status := "ok"
	switch {
	case hasPending:
		status = "pending"
	case len(missing) > 0:
		status = "incomplete"
	}

	if format == "json" {
		return json.NewEncoder(out).Encode(map[string]interface{}{
			"status":        status,
			"version":       current,
			"missing_roles": missing,
		})
	}

	switch status {
	case "pending":
		return fmt.Errorf("migrations are pending: current version %d", current)
	case "incomplete":
		return fmt.Errorf("schema is at version %d but roles %v are missing, run seed-catalog", current, missing)
	}

	fmt.Fprintf(out, "database is up to date (version %d)\n", current)
	return nil
}

func missingSystemRoles(ctx context.Context, db *sql.DB) ([]string, error) {
	missing := make([]string, 0)
	for _, name := range []string{types.RoleOwner, types.RoleAdmin, types.RoleMember} {
		var exists bool
		err := db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1)", name).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to look up role %s: %w", name, err)
		}
		if !exists {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
