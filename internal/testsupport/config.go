package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"javtidy/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
// Size filtering is disabled so tiny fixture files pass eligibility checks;
// tests tune the remaining fields directly.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(base, "input")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.TemplateDir = filepath.Join(base, "templates")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.JournalPath = filepath.Join(base, "logs", "journal.db")
	cfg.Process.MinimumSizeMiB = 0

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	if err := os.MkdirAll(cfg.Paths.InputDir, 0o755); err != nil {
		t.Fatalf("create test input directory: %v", err)
	}
	return &cfg
}
