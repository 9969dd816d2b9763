package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/cricbase/internal/app"
	"github.com/riskibarqy/cricbase/internal/usecase"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}

	withMigrator := func(fn func(m *app.Migrator, args []string) error) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			m, err := app.OpenMigrator(rt.cfg, rt.logger)
			if err != nil {
				return fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err)
			}
			defer func() {
				if err := m.Close(); err != nil {
					rt.logger.Warn("close migrator", "error", err)
				}
			}()
			return fn(m, args)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(m *app.Migrator, _ []string) error {
			return m.Up()
		}),
	}
	down := &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations, one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: withMigrator(func(m *app.Migrator, args []string) error {
			steps, err := parseSteps(args)
			if err != nil {
				return err
			}
			return m.Down(steps)
		}),
	}
	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(m *app.Migrator, _ []string) error {
			v, err := m.Version()
			if err != nil {
				return err
			}
			return rt.writeJSON(v)
		}),
	}
	force := &cobra.Command{
		Use:   "force <version>",
		Short: "Mark a version as applied without running it",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(m *app.Migrator, args []string) error {
			v, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			return m.Force(v)
		}),
	}
	gotoCmd := &cobra.Command{
		Use:   "goto <version>",
		Short: "Migrate up or down to a version",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(m *app.Migrator, args []string) error {
			v, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			return m.Goto(v)
		}),
	}

	cmd.AddCommand(up, down, version, force, gotoCmd)
	return cmd
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid down steps %q", usecase.ErrInvalidInput, args[0])
	}
	if steps <= 0 {
		return 0, fmt.Errorf("%w: down steps must be > 0", usecase.ErrInvalidInput)
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid version %q", usecase.ErrInvalidInput, raw)
	}
	if value < 0 {
		return 0, fmt.Errorf("%w: version must be >= 0", usecase.ErrInvalidInput)
	}
	if value > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("%w: version is too large for this platform", usecase.ErrInvalidInput)
	}
	return int(value), nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid target version %q", usecase.ErrInvalidInput, raw)
	}
	return uint(value), nil
}
