package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"javtidy/internal/journal"
)

type cliTestEnv struct {
	baseDir     string
	inputDir    string
	outputDir   string
	configPath  string
	journalPath string
}

const testTemplate = `
entrypoint: "${base_url}/detail?q=${crawl_name}"
env:
  base_url: "http://127.0.0.1:9"
nodes:
  main:
    script: select("div.info")
    children:
      title: select("h1").val().trim()
      actor: select("a.star").val()
`

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:     base,
		inputDir:    filepath.Join(base, "input"),
		outputDir:   filepath.Join(base, "output"),
		configPath:  filepath.Join(base, "config.toml"),
		journalPath: filepath.Join(base, "logs", "journal.db"),
	}
	templateDir := filepath.Join(base, "templates")
	if err := os.MkdirAll(templateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(templateDir, "demo.yaml"), []byte(testTemplate), 0o644); err != nil {
		t.Fatal(err)
	}

	content := fmt.Sprintf(`[paths]
input_dir = %q
output_dir = %q
template_dir = %q
log_dir = %q
journal_path = %q

[process]
minimum_size_mib = 0
thread_limit = 1

[templates]
priority = ["demo"]

[subtitles]
migrate = false

[logging]
level = "error"
`,
		env.inputDir, env.outputDir, templateDir,
		filepath.Join(base, "logs"), env.journalPath)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, needle string) {
	t.Helper()
	if !strings.Contains(output, needle) {
		t.Fatalf("expected output to contain %q, got %q", needle, output)
	}
}

func TestCLIScanListsEligibleFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.inputDir, "IPX-001.mp4")
	if err := os.MkdirAll(env.inputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(source, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"scan", "--list"}, env.configPath)
	if err != nil {
		t.Fatalf("scan --list: %v", err)
	}
	requireContains(t, out, source)
	requireContains(t, out, "1 eligible files")
}

func TestCLIOnceSkipsUnrecognizedName(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.inputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	source := filepath.Join(env.inputDir, "home video.mp4")
	if err := os.WriteFile(source, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"once", source}, env.configPath)
	if err != nil {
		t.Fatalf("once: %v", err)
	}
	requireContains(t, out, "Skipped:")
}

func TestCLIStatusAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	store, err := journal.Open(env.journalPath)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	ctx := context.Background()
	run := &journal.Run{
		ID:         "run-1",
		SourcePath: filepath.Join(env.inputDir, "IPX-001.mp4"),
		CatalogID:  "IPX-001",
		Template:   "demo",
		StartedAt:  time.Now().UTC(),
	}
	if err := store.StartRun(ctx, run); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	run.Status = journal.StatusDone
	run.Destination = filepath.Join(env.outputDir, "IPX-001", "IPX-001.mp4")
	if err := store.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close journal: %v", err)
	}

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "IPX-001")
	requireContains(t, out, string(journal.StatusDone))

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running\tno")
	requireContains(t, out, env.journalPath)
}
