package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Status is the terminal state of a processing run.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Run is one processing attempt for a source file.
type Run struct {
	ID           string
	SourcePath   string
	CatalogID    string
	Template     string
	Status       Status
	ErrorMessage string
	Destination  string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartRun records the beginning of a processing attempt.
func (s *Store) StartRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = StatusRunning
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_path, catalog_id, template, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.SourcePath,
		nullableString(run.CatalogID),
		nullableString(run.Template),
		run.Status,
		run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the terminal state of a run.
func (s *Store) FinishRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs
         SET catalog_id = ?, template = ?, status = ?, error_message = ?,
             destination = ?, finished_at = ?
         WHERE id = ?`,
		nullableString(run.CatalogID),
		nullableString(run.Template),
		run.Status,
		nullableString(run.ErrorMessage),
		nullableString(run.Destination),
		now.Format(time.RFC3339Nano),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// GetRun fetches a run by identifier, or nil when absent.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RecentRuns returns the newest runs first, at most limit of them.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FailureCount reports how many failed runs exist for a source path. The
// driver refuses sources that already failed maximum_fetch_count times.
func (s *Store) FailureCount(ctx context.Context, sourcePath string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM runs WHERE source_path = ? AND status = ?`,
		sourcePath, StatusFailed,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failure count: %w", err)
	}
	return count, nil
}

// Stats returns a count of runs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// BackupCreated records a freshly parked backup file. Implements the
// transaction recorder contract; failures are swallowed because a missing row
// only widens the recovery sweep.
func (s *Store) BackupCreated(path string) {
	_, _ = s.db.Exec(
		`INSERT OR REPLACE INTO backups (path, created_at) VALUES (?, ?)`,
		path, time.Now().UTC().Format(time.RFC3339Nano),
	)
}

// BackupResolved drops the row for a backup that was restored or removed.
func (s *Store) BackupResolved(path string) {
	_, _ = s.db.Exec(`DELETE FROM backups WHERE path = ?`, path)
}

// StaleBackups lists recorded backup files older than grace. These are
// leftovers from interrupted commits.
func (s *Store) StaleBackups(ctx context.Context, grace time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-grace).UTC().Format(time.RFC3339Nano)
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM backups WHERE created_at < ? ORDER BY path`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("stale backups: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// PruneBackup removes a backup row once its file is gone.
func (s *Store) PruneBackup(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM backups WHERE path = ?`, path); err != nil {
		return fmt.Errorf("prune backup: %w", err)
	}
	return nil
}

const runColumns = "id, source_path, catalog_id, template, status, error_message, destination, started_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id          string
		sourcePath  string
		catalogID   sql.NullString
		template    sql.NullString
		statusStr   string
		errMessage  sql.NullString
		destination sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&sourcePath,
		&catalogID,
		&template,
		&statusStr,
		&errMessage,
		&destination,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:           id,
		SourcePath:   sourcePath,
		CatalogID:    catalogID.String,
		Template:     template.String,
		Status:       Status(statusStr),
		ErrorMessage: errMessage.String,
		Destination:  destination.String,
	}
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := time.Parse(time.RFC3339Nano, finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
