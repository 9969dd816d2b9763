package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/usecase"
)

const dateFlagLayout = "2006-01-02"

func newReconcileCommand(rt *runtime) *cobra.Command {
	var category, from, to string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare the external schedule with stored matches",
		Long: `Reconcile walks the schedule month by month between --from and --to and records
scheduled matches that have no stored match. Records already reviewed are never
changed by a rerun.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req, err := parseReconcileRequest(category, from, to)
			if err != nil {
				return err
			}
			a, err := rt.App(ctx)
			if err != nil {
				return err
			}

			summary, runErr := a.Detector.Run(ctx, req)
			if err := rt.writeJSON(summary); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&category, "category", "male/T20", "gender/format to reconcile")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func parseReconcileRequest(category, from, to string) (usecase.ReconcileRequest, error) {
	c, err := match.ParseCategory(category)
	if err != nil {
		return usecase.ReconcileRequest{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	fromDate, err := time.Parse(dateFlagLayout, from)
	if err != nil {
		return usecase.ReconcileRequest{}, fmt.Errorf("%w: --from: %v", usecase.ErrInvalidInput, err)
	}
	toDate := time.Now().UTC().Truncate(24 * time.Hour)
	if to != "" {
		if toDate, err = time.Parse(dateFlagLayout, to); err != nil {
			return usecase.ReconcileRequest{}, fmt.Errorf("%w: --to: %v", usecase.ErrInvalidInput, err)
		}
	}
	return usecase.ReconcileRequest{Category: c, From: fromDate, To: toDate}, nil
}
