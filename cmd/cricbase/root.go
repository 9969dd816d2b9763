package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "cricbase",
		Short:         "Cricsheet ingestion and missing-match detection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup()
		},
	}

	root.AddCommand(
		newIngestCommand(rt),
		newReconcileCommand(rt),
		newMissingCommand(rt),
		newReviewCommand(rt),
		newProfilesCommand(rt),
		newVerifyCommand(rt),
		newMigrateCommand(rt),
	)
	return root
}
