package txn

import (
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/karrick/godirwalk"
)

var backupRE = regexp.MustCompile(`\.backup\.(\d+)$`)

// SweepBackups removes .backup.<epoch> leftovers under root older than grace.
// Fresh backups are kept; they may belong to a commit in flight elsewhere.
// Returns how many files were removed.
func SweepBackups(root string, grace time.Duration, log *slog.Logger) (int, error) {
	cutoff := time.Now().Add(-grace).Unix()
	removed := 0
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			m := backupRE.FindStringSubmatch(path)
			if m == nil {
				return nil
			}
			epoch, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil || epoch > cutoff {
				return nil
			}
			if err := os.Remove(path); err != nil {
				log.Warn("backup sweep could not remove file",
					slog.String("path", path), slog.Any("error", err))
				return nil
			}
			removed++
			log.Info("removed stale backup", slog.String("path", path))
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			log.Warn("backup sweep error", slog.String("path", path), slog.Any("error", err))
			return godirwalk.SkipNode
		},
	})
	return removed, err
}
