// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/canonical/customer-portal/migrations"
)

var migrateFormat string

// migrateCmd performs DB migrations
var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down [version]|status|check]",
	Short:     "Run database migrations",
	Long:      `Apply, roll back or inspect the embedded goose migrations, "up" by default.`,
	Args:      migrateArgs,
	ValidArgs: []string{"up", "down", "status", "check"},
	RunE:      runMigrate,
}

func init() {
	migrateCmd.Flags().StringVarP(&migrateFormat, "format", "f", "text", "Output format (text or json)")

	rootCmd.AddCommand(migrateCmd)
}

func migrateArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.RangeArgs(0, 2)(cmd, args); err != nil {
		return err
	}

	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "up", "status", "check":
		if len(args) > 1 {
			return fmt.Errorf("%s takes no version", args[0])
		}
	case "down":
		if len(args) == 2 {
			if v, err := strconv.ParseInt(args[1], 10, 64); err != nil || v < 0 {
				return fmt.Errorf("invalid version number: %q", args[1])
			}
		}
	default:
		return fmt.Errorf("unknown migrate command: %q", args[0])
	}

	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	o, err := newOperator()
	if err != nil {
		return err
	}
	defer o.Close()

	var opts []goose.ProviderOption
	if migrateFormat == "json" {
		opts = append(opts, goose.WithLogger(goose.NopLogger()))
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, o.db.DB(), migrations.EmbedMigrations, opts...)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	ctx := cmd.Context()

	var out any

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return err
		}

		out = map[string]any{"applied": nonNil(results)}
	case "down":
		var results []*goose.MigrationResult

		if len(args) == 2 {
			version, _ := strconv.ParseInt(args[1], 10, 64)
			results, err = provider.DownTo(ctx, version)
		} else {
			var r *goose.MigrationResult
			if r, err = provider.Down(ctx); r != nil {
				results = append(results, r)
			}
		}

		if err != nil {
			return err
		}

		out = map[string]any{"applied": nonNil(results)}
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return err
		}

		if migrateFormat != "json" {
			fmt.Fprintln(cmd.OutOrStdout(), "    Applied At                  Migration")
			fmt.Fprintln(cmd.OutOrStdout(), "    =======================================")
			for _, s := range statuses {
				appliedAt := "Pending"
				if s.State == goose.StateApplied {
					appliedAt = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "    %-24s -- %s\n", appliedAt, s.Source.Path)
			}

			return nil
		}

		out = statuses
	case "check":
		pending, err := provider.HasPending(ctx)
		if err != nil {
			return fmt.Errorf("failed to check pending migrations: %w", err)
		}

		current, err := provider.GetDBVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to get database version: %w", err)
		}

		if migrateFormat != "json" {
			if pending {
				return fmt.Errorf("migrations are pending: current version %d", current)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database is up to date (version %d)\n", current)

			return nil
		}

		status := "ok"
		if pending {
			status = "pending"
		}

		out = map[string]any{"status": status, "version": current}
	}

	if migrateFormat == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
	}

	return nil
}

func nonNil(results []*goose.MigrationResult) []*goose.MigrationResult {
	if results == nil {
		return []*goose.MigrationResult{}
	}

	return results
}
