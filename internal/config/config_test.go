package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"javtidy/internal/config"
)

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("JAVTIDY_CONFIG", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.InputDir != filepath.Join(tempHome, "Downloads") {
		t.Fatalf("unexpected input dir: %q", cfg.Paths.InputDir)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "library", "jav") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.TemplateDir != filepath.Join(tempHome, ".config", "javtidy", "templates") {
		t.Fatalf("unexpected template dir: %q", cfg.Paths.TemplateDir)
	}
	if len(cfg.Process.MigrateFiles) == 0 || cfg.Process.MigrateFiles[0] != "mp4" {
		t.Fatalf("unexpected migrate extensions: %v", cfg.Process.MigrateFiles)
	}
	if cfg.Process.ThreadLimit != 4 {
		t.Fatalf("unexpected thread limit: %d", cfg.Process.ThreadLimit)
	}
	if cfg.Naming.MultiActorStrategy != "first_only" {
		t.Fatalf("unexpected actor strategy: %q", cfg.Naming.MultiActorStrategy)
	}
	if cfg.Subtitles.Language != "zh-CN" {
		t.Fatalf("unexpected subtitle language: %q", cfg.Subtitles.Language)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %q %q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if len(cfg.UnknownKeys()) != 0 {
		t.Fatalf("unexpected unknown keys: %v", cfg.UnknownKeys())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.TemplateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "javtidy.toml")

	doc := strings.Join([]string{
		"[paths]",
		`input_dir = "` + filepath.Join(tempDir, "in") + `"`,
		`output_dir = "` + filepath.Join(tempDir, "out") + `"`,
		"[process]",
		"thread_limit = 8",
		`ignored_id_pattern = ["hhd800.com@"]`,
		"[naming]",
		`template = "$actor$/$id$ $title$"`,
		`multi_actor_strategy = "merge"`,
		"[templates]",
		`priority = ["javbus.yaml", "javdb"]`,
	}, "\n")
	if err := os.WriteFile(configPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Process.ThreadLimit != 8 {
		t.Fatalf("expected thread limit 8, got %d", cfg.Process.ThreadLimit)
	}
	if len(cfg.Process.IgnoredIDPatterns) != 1 || cfg.Process.IgnoredIDPatterns[0] != "hhd800.com@" {
		t.Fatalf("unexpected ignored patterns: %v", cfg.Process.IgnoredIDPatterns)
	}
	if cfg.Naming.Template != "$actor$/$id$ $title$" {
		t.Fatalf("unexpected naming template: %q", cfg.Naming.Template)
	}
	if cfg.Naming.MultiActorStrategy != "merge" {
		t.Fatalf("unexpected strategy: %q", cfg.Naming.MultiActorStrategy)
	}
	// priority entries lose their .yaml suffix during normalization
	want := []string{"javbus", "javdb"}
	if len(cfg.Templates.Priority) != len(want) {
		t.Fatalf("unexpected priority: %v", cfg.Templates.Priority)
	}
	for i, name := range want {
		if cfg.Templates.Priority[i] != name {
			t.Fatalf("priority[%d] = %q, want %q", i, cfg.Templates.Priority[i], name)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "javtidy.toml")
	doc := strings.Join([]string{
		"[paths]",
		`input_dir = "` + filepath.Join(tempDir, "file-in") + `"`,
		"[logging]",
		`level = "info"`,
	}, "\n")
	if err := os.WriteFile(configPath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	envIn := filepath.Join(tempDir, "env-in")
	t.Setenv("JAVTIDY_INPUT_DIR", envIn)
	t.Setenv("JAVTIDY_LOG_LEVEL", "debug")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.InputDir != envIn {
		t.Errorf("expected input dir from env, got %q", cfg.Paths.InputDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level from env, got %q", cfg.Logging.Level)
	}
}

func TestUnknownKeysCollected(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "javtidy.toml")
	doc := strings.Join([]string{
		"[paths]",
		`input_dir = "in"`,
		`scratch_dir = "x"`,
		"[mystery]",
		"value = 1",
	}, "\n")
	if err := os.WriteFile(configPath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	got := cfg.UnknownKeys()
	want := []string{"mystery", "paths.scratch_dir"}
	if len(got) != len(want) {
		t.Fatalf("UnknownKeys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("UnknownKeys = %v, want %v", got, want)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "input_dir") {
		t.Fatalf("sample config missing input_dir: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Naming.Template == "" {
		t.Fatal("sample should carry the naming template")
	}

	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Paths.InputDir = "/in"
		cfg.Paths.OutputDir = "/out"
		return cfg
	}

	cfg := base()
	cfg.Paths.OutputDir = cfg.Paths.InputDir
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when input and output collide")
	}

	cfg = base()
	cfg.Process.ThreadLimit = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive thread limit")
	}

	cfg = base()
	cfg.Naming.Template = "title only"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for template without $id$")
	}

	cfg = base()
	cfg.Naming.MultiActorStrategy = "everyone"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown actor strategy")
	}

	cfg = base()
	cfg.Subtitles.Migrate = true
	cfg.Subtitles.Extensions = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when subtitle migration has no extensions")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "javtidy.toml")
	doc := strings.Join([]string{
		"[naming]",
		`multi_actor_strategy = "everyone"`,
	}, "\n")
	if err := os.WriteFile(configPath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected Load to reject invalid multi_actor_strategy")
	}
	if !strings.Contains(err.Error(), "multi_actor_strategy") {
		t.Fatalf("unexpected error: %v", err)
	}
}
