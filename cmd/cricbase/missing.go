package main

import (
	"github.com/spf13/cobra"

	"github.com/riskibarqy/cricbase/internal/usecase"
)

func newMissingCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missing",
		Short: "Inspect missing-match records",
	}

	var category, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List missing-match records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.App(ctx)
			if err != nil {
				return err
			}
			items, err := a.Reviews.List(ctx, category, status)
			if err != nil {
				return err
			}
			return rt.writeJSON(items)
		},
	}
	list.Flags().StringVar(&category, "category", "", "gender/format filter, e.g. female/T20")
	list.Flags().StringVar(&status, "status", "", "status filter: unreviewed, confirmed_missing, confirmed_duplicate, false_positive")

	history := &cobra.Command{
		Use:   "history <schedule-id>",
		Short: "Show the review history of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.App(ctx)
			if err != nil {
				return err
			}
			reviews, err := a.Reviews.History(ctx, args[0])
			if err != nil {
				return err
			}
			return rt.writeJSON(reviews)
		},
	}

	cmd.AddCommand(list, history)
	return cmd
}

func newReviewCommand(rt *runtime) *cobra.Command {
	var reviewer, note string
	cmd := &cobra.Command{
		Use:   "review <schedule-id> <status>",
		Short: "Record a human decision on a missing-match record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.App(ctx)
			if err != nil {
				return err
			}
			rec, err := a.Reviews.Review(ctx, usecase.ReviewInput{
				ScheduleID: args[0],
				Status:     args[1],
				Reviewer:   reviewer,
				Note:       note,
			})
			if err != nil {
				return err
			}
			return rt.writeJSON(rec)
		},
	}
	cmd.Flags().StringVar(&reviewer, "reviewer", "", "who made the decision")
	cmd.Flags().StringVar(&note, "note", "", "free-form note kept with the review")
	_ = cmd.MarkFlagRequired("reviewer")
	return cmd
}
