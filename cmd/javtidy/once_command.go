package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"javtidy/internal/journal"
	"javtidy/internal/logging"
)

func newOnceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "once <file>",
		Short: "Process a single video file and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			source, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
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

			out := cmd.OutOrStdout()
			outcome, procErr := drv.Process(cmd.Context(), source)
			switch outcome.Status {
			case journal.StatusDone:
				fmt.Fprintf(out, "Done: %s -> %s (template %s)\n",
					source, outcome.Destination, outcome.Template)
				if outcome.LinkSubstitutions > 0 {
					fmt.Fprintf(out, "Note: %d actor links fell back to symlinks\n",
						outcome.LinkSubstitutions)
				}
				return nil
			case journal.StatusSkipped:
				fmt.Fprintf(out, "Skipped: %v\n", procErr)
				return nil
			default:
				return fmt.Errorf("process %s: %w", source, procErr)
			}
		},
	}
}
