package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig []byte

// Paths groups every directory and file location javtidy touches.
type Paths struct {
	InputDir    string `toml:"input_dir"`
	OutputDir   string `toml:"output_dir"`
	TemplateDir string `toml:"template_dir"`
	LogDir      string `toml:"log_dir"`
	JournalPath string `toml:"journal_path"`
}

// Process controls how source files are picked up and worked on.
type Process struct {
	MigrateFiles       []string `toml:"migrate_files"`
	IgnoredIDPatterns  []string `toml:"ignored_id_pattern"`
	ThreadLimit        int      `toml:"thread_limit"`
	MaximumFetchCount  int      `toml:"maximum_fetch_count"`
	LockTimeoutSeconds int      `toml:"lock_timeout_seconds"`
	BackupGraceSeconds int      `toml:"backup_grace_seconds"`
	MinimumSizeMiB     int      `toml:"minimum_size_mib"`
}

// Templates selects which scraper workflows run and in what order.
type Templates struct {
	Priority []string `toml:"priority"`
}

// Naming shapes the destination layout for committed items.
type Naming struct {
	Template           string `toml:"template"`
	MultiActorStrategy string `toml:"multi_actor_strategy"`
}

// Subtitles controls companion subtitle migration.
type Subtitles struct {
	Migrate    bool     `toml:"migrate"`
	Extensions []string `toml:"extensions"`
	Language   string   `toml:"language"`
}

// Network tunes the scraping HTTP client.
type Network struct {
	UserAgent             string `toml:"user_agent"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	RetryAttempts         int    `toml:"retry_attempts"`
}

// Logging selects log output format, verbosity, and retention.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config is the complete javtidy configuration tree.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Process   Process   `toml:"process"`
	Templates Templates `toml:"templates"`
	Naming    Naming    `toml:"naming"`
	Subtitles Subtitles `toml:"subtitles"`
	Network   Network   `toml:"network"`
	Logging   Logging   `toml:"logging"`

	unknownKeys []string
}

// UnknownKeys reports configuration keys present in the file that javtidy does
// not understand. They are ignored rather than fatal so older binaries keep
// working against newer config files; callers should log them.
func (c *Config) UnknownKeys() []string { return c.unknownKeys }

// DefaultConfigPath returns the canonical config location under the user's
// home directory.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "javtidy", "config.toml"), nil
}

func resolveConfigPath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return expandPath(explicit)
	}
	if env := strings.TrimSpace(os.Getenv("JAVTIDY_CONFIG")); env != "" {
		return expandPath(env)
	}
	return DefaultConfigPath()
}

// Load reads the configuration at path (or the default location when path is
// empty), applies defaults, environment overrides, and normalization, then
// validates the result. It returns the resolved path and whether a file was
// found there; a missing file yields the defaults rather than an error.
func Load(path string) (*Config, string, bool, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	exists := false
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		exists = true
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, resolved, true, fmt.Errorf("parse %s: %w", resolved, err)
		}
		cfg.unknownKeys = unknownKeys(data)
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, resolved, false, fmt.Errorf("read %s: %w", resolved, err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.normalize(); err != nil {
		return nil, resolved, exists, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, resolved, exists, err
	}
	return &cfg, resolved, exists, nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("JAVTIDY_INPUT_DIR")); v != "" {
		c.Paths.InputDir = v
	}
	if v := strings.TrimSpace(os.Getenv("JAVTIDY_OUTPUT_DIR")); v != "" {
		c.Paths.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv("JAVTIDY_TEMPLATE_DIR")); v != "" {
		c.Paths.TemplateDir = v
	}
	if v := strings.TrimSpace(os.Getenv("JAVTIDY_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
}

// unknownKeys diffs the raw document against the Config struct's toml tags,
// one section deep.
func unknownKeys(data []byte) []string {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil
	}
	known := make(map[string]map[string]struct{})
	root := reflect.TypeOf(Config{})
	for i := 0; i < root.NumField(); i++ {
		field := root.Field(i)
		tag := field.Tag.Get("toml")
		if tag == "" {
			continue
		}
		fields := make(map[string]struct{})
		for j := 0; j < field.Type.NumField(); j++ {
			if sub := field.Type.Field(j).Tag.Get("toml"); sub != "" {
				fields[sub] = struct{}{}
			}
		}
		known[tag] = fields
	}

	var unknown []string
	for section, value := range raw {
		fields, ok := known[section]
		if !ok {
			unknown = append(unknown, section)
			continue
		}
		table, ok := value.(map[string]any)
		if !ok {
			continue
		}
		for key := range table {
			if _, ok := fields[key]; !ok {
				unknown = append(unknown, section+"."+key)
			}
		}
	}
	sort.Strings(unknown)
	return unknown
}

// expandPath resolves ~ prefixes and makes the path absolute.
func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", path, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return abs, nil
}

// EnsureDirectories creates the directories javtidy writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.OutputDir,
		c.Paths.TemplateDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.JournalPath),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config file already exists at %s", resolved)
	}
	if err := os.WriteFile(resolved, sampleConfig, 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
