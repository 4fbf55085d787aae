package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"javtidy/internal/journal"
	"javtidy/internal/logging"
	"javtidy/internal/watcher"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var listOnly bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Process every eligible file already in the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			files, err := watcher.New(cfg, logger).Scan()
			if err != nil {
				return fmt.Errorf("scan input directory: %w", err)
			}

			out := cmd.OutOrStdout()
			if listOnly {
				for _, path := range files {
					fmt.Fprintln(out, path)
				}
				fmt.Fprintf(out, "%d eligible files\n", len(files))
				return nil
			}

			store, err := ctx.openJournal(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			drv, err := ctx.buildDriver(cfg, store, logger)
			if err != nil {
				return err
			}

			counts := map[journal.Status]int{}
			for _, path := range files {
				if cmd.Context().Err() != nil {
					return cmd.Context().Err()
				}
				outcome, procErr := drv.Process(cmd.Context(), path)
				counts[outcome.Status]++
				switch outcome.Status {
				case journal.StatusDone:
					fmt.Fprintf(out, "done    %s -> %s\n", path, outcome.Destination)
				case journal.StatusSkipped:
					fmt.Fprintf(out, "skipped %s: %v\n", path, procErr)
				default:
					fmt.Fprintf(out, "failed  %s: %v\n", path, procErr)
				}
			}
			fmt.Fprintf(out, "Scan complete: %d done, %d skipped, %d failed\n",
				counts[journal.StatusDone], counts[journal.StatusSkipped], counts[journal.StatusFailed])
			return nil
		},
	}

	cmd.Flags().BoolVar(&listOnly, "list", false, "List eligible files without processing them")
	return cmd
}
