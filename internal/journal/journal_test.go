package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := &Run{ID: "run-1", SourcePath: "/in/IPX-001.mkv"}
	if err := store.StartRun(ctx, run); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.Status != StatusRunning {
		t.Fatalf("status after start = %q, want %q", run.Status, StatusRunning)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil || got.Status != StatusRunning {
		t.Fatalf("fetched run = %+v, want running", got)
	}
	if got.FinishedAt != nil {
		t.Fatalf("unfinished run has finished_at %v", got.FinishedAt)
	}

	run.CatalogID = "IPX-001"
	run.Template = "javbus"
	run.Status = StatusDone
	run.Destination = "/out/IPX-001/IPX-001 title.mkv"
	if err := store.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err = store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun after finish: %v", err)
	}
	if got.Status != StatusDone {
		t.Fatalf("status = %q, want %q", got.Status, StatusDone)
	}
	if got.CatalogID != "IPX-001" || got.Template != "javbus" {
		t.Fatalf("catalog/template = %q/%q", got.CatalogID, got.Template)
	}
	if got.Destination != run.Destination {
		t.Fatalf("destination = %q", got.Destination)
	}
	if got.FinishedAt == nil {
		t.Fatal("finished run missing finished_at")
	}
}

func TestGetRunMissing(t *testing.T) {
	store := openTestStore(t)

	run, err := store.GetRun(context.Background(), "absent")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run != nil {
		t.Fatalf("expected nil for missing run, got %+v", run)
	}
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		run := &Run{
			ID:         string(rune('a' + i)),
			SourcePath: "/in/file.mkv",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.StartRun(ctx, run); err != nil {
			t.Fatalf("StartRun %d: %v", i, err)
		}
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("order = %s, %s; want c, b", runs[0].ID, runs[1].ID)
	}
}

func TestFailureCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	finish := func(id string, status Status) {
		t.Helper()
		run := &Run{ID: id, SourcePath: "/in/SSIS-100.mkv"}
		if err := store.StartRun(ctx, run); err != nil {
			t.Fatalf("StartRun %s: %v", id, err)
		}
		run.Status = status
		if err := store.FinishRun(ctx, run); err != nil {
			t.Fatalf("FinishRun %s: %v", id, err)
		}
	}
	finish("f1", StatusFailed)
	finish("f2", StatusFailed)
	finish("f3", StatusDone)

	count, err := store.FailureCount(ctx, "/in/SSIS-100.mkv")
	if err != nil {
		t.Fatalf("FailureCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("failure count = %d, want 2", count)
	}

	count, err = store.FailureCount(ctx, "/in/other.mkv")
	if err != nil {
		t.Fatalf("FailureCount other: %v", err)
	}
	if count != 0 {
		t.Fatalf("failure count for untouched source = %d", count)
	}
}

func TestStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	statuses := []Status{StatusDone, StatusDone, StatusFailed, StatusSkipped}
	for i, status := range statuses {
		run := &Run{ID: string(rune('0' + i)), SourcePath: "/in/f.mkv"}
		if err := store.StartRun(ctx, run); err != nil {
			t.Fatalf("StartRun %d: %v", i, err)
		}
		run.Status = status
		if err := store.FinishRun(ctx, run); err != nil {
			t.Fatalf("FinishRun %d: %v", i, err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[StatusDone] != 2 || stats[StatusFailed] != 1 || stats[StatusSkipped] != 1 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestBackupTracking(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.BackupCreated("/out/a.nfo.backup.100")
	store.BackupCreated("/out/b.mkv.backup.101")

	// Freshly created rows sit inside any reasonable grace window.
	stale, err := store.StaleBackups(ctx, time.Hour)
	if err != nil {
		t.Fatalf("StaleBackups: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("fresh backups reported stale: %v", stale)
	}

	stale, err = store.StaleBackups(ctx, -time.Minute)
	if err != nil {
		t.Fatalf("StaleBackups negative grace: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("got %d stale backups, want 2", len(stale))
	}
	if stale[0] != "/out/a.nfo.backup.100" || stale[1] != "/out/b.mkv.backup.101" {
		t.Fatalf("stale order = %v", stale)
	}

	store.BackupResolved("/out/a.nfo.backup.100")
	if err := store.PruneBackup(ctx, "/out/b.mkv.backup.101"); err != nil {
		t.Fatalf("PruneBackup: %v", err)
	}

	stale, err = store.StaleBackups(ctx, -time.Minute)
	if err != nil {
		t.Fatalf("StaleBackups after cleanup: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("backups remain after cleanup: %v", stale)
	}
}

func TestSchemaVersionGuard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Open with bumped schema: %v, want ErrSchemaMismatch", err)
	}
}
