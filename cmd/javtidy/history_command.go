package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"javtidy/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent processing runs from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store, err := ctx.openJournal(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.StartedAt.Local().Format(time.DateTime),
					string(run.Status),
					run.CatalogID,
					run.Template,
					historyDetail(run),
				})
			}

			writeTable(cmd.OutOrStdout(),
				[]string{"Started", "Status", "Catalog", "Template", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft})
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func historyDetail(run *journal.Run) string {
	if run.Status == journal.StatusDone && run.Destination != "" {
		return run.Destination
	}
	if run.ErrorMessage != "" {
		return run.ErrorMessage
	}
	return run.SourcePath
}
