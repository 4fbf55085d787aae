package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"javtidy/internal/journal"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon state and journal counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			lockPath := filepath.Join(cfg.Paths.LogDir, "javtidy.lock")
			running, err := daemonRunning(lockPath)
			if err != nil {
				return err
			}

			store, err := ctx.openJournal(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("journal stats: %w", err)
			}

			rows := [][]string{
				{"Running", yesNo(running)},
				{"Lock file", lockPath},
				{"Journal", cfg.Paths.JournalPath},
				{"Input", cfg.Paths.InputDir},
				{"Output", cfg.Paths.OutputDir},
			}
			for _, status := range []journal.Status{
				journal.StatusRunning, journal.StatusDone,
				journal.StatusSkipped, journal.StatusFailed,
			} {
				rows = append(rows, []string{
					"Runs " + string(status), strconv.Itoa(counts[status]),
				})
			}

			writeTable(cmd.OutOrStdout(), []string{"Field", "Value"}, rows,
				[]columnAlignment{alignLeft, alignLeft})
			return nil
		},
	}
}

// daemonRunning probes the instance lock without holding it. A lock that
// cannot be acquired means a daemon owns it right now.
func daemonRunning(lockPath string) (bool, error) {
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe instance lock: %w", err)
	}
	if !ok {
		return true, nil
	}
	if err := lock.Unlock(); err != nil {
		return false, fmt.Errorf("release probe lock: %w", err)
	}
	return false, nil
}
