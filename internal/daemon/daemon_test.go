package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"javtidy/internal/config"
	"javtidy/internal/driver"
	"javtidy/internal/fetch"
	"javtidy/internal/journal"
	"javtidy/internal/logging"
	"javtidy/internal/template"
	"javtidy/internal/testsupport"
	"javtidy/internal/watcher"
)

const detailPage = `<html><body>
<div class="info"><h1>Sample</h1><a class="star">A</a></div>
</body></html>`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Process.ThreadLimit = 2
	cfg.Naming.Template = "$actor$/$id$"
	cfg.Subtitles.Migrate = false
	return cfg
}

func buildDaemon(t *testing.T, cfg *config.Config, baseURL string) *Daemon {
	t.Helper()
	store := testsupport.MustOpenJournal(t, cfg)
	doc := fmt.Sprintf(`
entrypoint: "${base_url}/detail?q=${crawl_name}"
env:
  base_url: %q
nodes:
  main:
    script: select("div.info")
    children:
      title: select("h1").val().trim()
      actor: select("a.star").val()
`, baseURL)
	wf, err := template.Load("demo", []byte(doc))
	if err != nil {
		t.Fatalf("template.Load: %v", err)
	}
	client := fetch.New(5*time.Second, 1, logging.NewNop())
	drv, err := driver.New(cfg, []*template.Workflow{wf}, client, store, logging.NewNop())
	if err != nil {
		t.Fatalf("driver.New: %v", err)
	}
	d, err := New(cfg, store, drv, watcher.New(cfg, logging.NewNop()), logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestStartProcessesExistingFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detailPage)
	}))
	defer server.Close()

	cfg := testConfig(t)
	source := filepath.Join(cfg.Paths.InputDir, "IPX-001.mp4")
	if err := os.WriteFile(source, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := buildDaemon(t, cfg, server.URL)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	dest := filepath.Join(cfg.Paths.OutputDir, "A", "IPX-001.mp4")
	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, err := os.Stat(dest); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("destination %s never appeared", dest)
		}
		time.Sleep(50 * time.Millisecond)
	}
	d.Stop()

	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Errorf("source still present: %v", err)
	}
	status := d.Status(context.Background())
	if status.Running {
		t.Error("status reports running after Stop")
	}
	if status.RunCounts[journal.StatusDone] != 1 {
		t.Errorf("run counts = %v", status.RunCounts)
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	cfg := testConfig(t)
	first := buildDaemon(t, cfg, "http://example.test")
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	second := buildDaemon(t, cfg, "http://example.test")
	err := second.Start(context.Background())
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start = %v, want ErrAlreadyRunning", err)
	}
}

func TestRecoverySweepRemovesStaleBackups(t *testing.T) {
	cfg := testConfig(t)
	cfg.Process.BackupGraceSeconds = 1

	stale := filepath.Join(cfg.Paths.OutputDir, "A", "IPX-001.mkv.backup.1600000000")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("parked"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := buildDaemon(t, cfg, "http://example.test")
	d.store.BackupCreated(stale)
	time.Sleep(1100 * time.Millisecond)

	d.recoverBackups(context.Background())

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale backup still present: %v", err)
	}
	rows, err := d.store.StaleBackups(context.Background(), -time.Minute)
	if err != nil {
		t.Fatalf("StaleBackups: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("backup rows remain: %v", rows)
	}
}
