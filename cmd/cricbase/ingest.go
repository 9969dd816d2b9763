package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newIngestCommand(rt *runtime) *cobra.Command {
	var (
		dir      string
		heldOnly bool
	)
	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Ingest every Cricsheet JSON document in a directory",
		Long: `Ingest reads every *.json file directly under the directory (CRICSHEET_DIR by
default) and stores each in-scope match atomically. Documents with unresolved
names are quarantined and their names are queued as resolution candidates.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.App(ctx)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				dir = args[0]
			}
			if strings.TrimSpace(dir) == "" {
				dir = rt.cfg.CricsheetDir
			}

			summary, err := a.Ingestion.IngestDirectory(ctx, dir)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", dir, err)
			}
			if heldOnly {
				summary.Results = summary.Held()
			}
			return rt.writeJSON(summary)
		},
	}
	cmd.Flags().BoolVar(&heldOnly, "held-only", false, "only list quarantined, rejected and failed documents")
	return cmd
}

