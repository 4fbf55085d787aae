package daemon

import (
	"context"
	"log/slog"
	"os"
	"time"

	"javtidy/internal/logging"
	"javtidy/internal/txn"
)

// recoverBackups clears .backup.<epoch> leftovers from interrupted commits.
// Journaled backups are handled first; a filesystem sweep of the output tree
// catches anything the journal missed (for example, a crash between parking
// the file and writing the row).
func (d *Daemon) recoverBackups(ctx context.Context) {
	grace := time.Duration(d.cfg.Process.BackupGraceSeconds) * time.Second

	paths, err := d.store.StaleBackups(ctx, grace)
	if err != nil {
		d.log.Warn("stale backup query failed", slog.Any("error", err))
	}
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			d.log.Warn("stale backup not removed",
				slog.String(logging.FieldPath, path), slog.Any("error", err))
			continue
		}
		if err := d.store.PruneBackup(ctx, path); err != nil {
			d.log.Warn("backup row not pruned",
				slog.String(logging.FieldPath, path), slog.Any("error", err))
		} else {
			d.log.Info("stale backup removed", slog.String(logging.FieldPath, path))
		}
	}

	removed, err := txn.SweepBackups(d.cfg.Paths.OutputDir, grace, d.log)
	if err != nil {
		d.log.Warn("backup sweep failed", slog.Any("error", err))
	}
	if removed > 0 {
		d.log.Info("backup sweep complete", slog.Int("removed", removed))
	}
}
