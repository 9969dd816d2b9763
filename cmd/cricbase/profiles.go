package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/cricbase/internal/usecase"
)

func newProfilesCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Load curated profiles and inspect resolution candidates",
	}

	var aliasFile string
	load := &cobra.Command{
		Use:   "load [dir]",
		Short: "Load people.csv, teams.csv, venues.csv and the alias table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.App(ctx)
			if err != nil {
				return err
			}
			dir := rt.cfg.ProfileDir
			if len(args) == 1 {
				dir = args[0]
			}
			if aliasFile == "" {
				aliasFile = rt.cfg.AliasFile
			}

			summary, err := a.Profiles.LoadDirectory(ctx, dir)
			if err != nil {
				return err
			}
			if strings.TrimSpace(aliasFile) != "" {
				if _, statErr := os.Stat(aliasFile); statErr == nil {
					n, err := a.Profiles.LoadAliasFile(ctx, aliasFile)
					if err != nil {
						return fmt.Errorf("load aliases: %w", err)
					}
					summary.Aliases = n
				} else {
					rt.logger.Info("alias file not found, skipping", "path", aliasFile)
				}
			}
			if _, err := a.Resolver.Reload(ctx); err != nil {
				return err
			}
			return rt.writeJSON(summary)
		},
	}
	load.Flags().StringVar(&aliasFile, "aliases", "", "alias table (YAML), default ALIAS_FILE")

	var status string
	candidates := &cobra.Command{
		Use:   "candidates",
		Short: "List unresolved names waiting for curation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.App(ctx)
			if err != nil {
				return err
			}
			items, err := a.Profiles.Candidates(ctx, status)
			if err != nil {
				return err
			}
			return rt.writeJSON(items)
		},
	}
	candidates.Flags().StringVar(&status, "status", "pending", "pending, accepted, rejected or empty for all")

	failures := &cobra.Command{
		Use:   "failures",
		Short: "List documents held back by the last ingest attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.App(ctx)
			if err != nil {
				return err
			}
			items, err := a.Repos.Failures.ListFailures(ctx, "")
			if err != nil {
				return fmt.Errorf("%w: list ingest failures: %w", usecase.ErrDependencyUnavailable, err)
			}
			return rt.writeJSON(items)
		},
	}

	cmd.AddCommand(load, candidates, failures)
	return cmd
}

func newVerifyCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check stored innings totals against their deliveries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.App(ctx)
			if err != nil {
				return err
			}
			issues, err := a.Integrity.Verify(ctx)
			if err != nil {
				return err
			}
			if err := rt.writeJSON(issues); err != nil {
				return err
			}
			if len(issues) > 0 {
				return fmt.Errorf("%w: %d", errIssuesFound, len(issues))
			}
			return nil
		},
	}
}
