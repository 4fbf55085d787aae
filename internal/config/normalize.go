package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProcess()
	c.normalizeTemplates()
	c.normalizeNaming()
	c.normalizeSubtitles()
	c.normalizeNetwork()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TemplateDir) == "" {
		c.Paths.TemplateDir = defaultTemplateDir
	}
	if c.Paths.TemplateDir, err = expandPath(c.Paths.TemplateDir); err != nil {
		return fmt.Errorf("paths.template_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.JournalPath) == "" {
		c.Paths.JournalPath = defaultJournalPath
	}
	if c.Paths.JournalPath, err = expandPath(c.Paths.JournalPath); err != nil {
		return fmt.Errorf("paths.journal_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeProcess() {
	exts := make([]string, 0, len(c.Process.MigrateFiles))
	seen := make(map[string]struct{}, len(c.Process.MigrateFiles))
	for _, ext := range c.Process.MigrateFiles {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = Default().Process.MigrateFiles
	}
	c.Process.MigrateFiles = exts

	patterns := c.Process.IgnoredIDPatterns[:0]
	for _, p := range c.Process.IgnoredIDPatterns {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	c.Process.IgnoredIDPatterns = patterns

	if c.Process.ThreadLimit <= 0 {
		c.Process.ThreadLimit = defaultThreadLimit
	}
	if c.Process.MaximumFetchCount <= 0 {
		c.Process.MaximumFetchCount = defaultMaximumFetchCount
	}
	if c.Process.LockTimeoutSeconds <= 0 {
		c.Process.LockTimeoutSeconds = defaultLockTimeoutSeconds
	}
	if c.Process.BackupGraceSeconds <= 0 {
		c.Process.BackupGraceSeconds = defaultBackupGraceSeconds
	}
	if c.Process.MinimumSizeMiB < 0 {
		c.Process.MinimumSizeMiB = 0
	}
}

func (c *Config) normalizeTemplates() {
	names := c.Templates.Priority[:0]
	for _, name := range c.Templates.Priority {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		trimmed = strings.TrimSuffix(trimmed, ".yaml")
		trimmed = strings.TrimSuffix(trimmed, ".yml")
		names = append(names, trimmed)
	}
	c.Templates.Priority = names
}

func (c *Config) normalizeNaming() {
	c.Naming.Template = strings.TrimSpace(c.Naming.Template)
	if c.Naming.Template == "" {
		c.Naming.Template = defaultNamingTemplate
	}
	c.Naming.MultiActorStrategy = strings.ToLower(strings.TrimSpace(c.Naming.MultiActorStrategy))
	if c.Naming.MultiActorStrategy == "" {
		c.Naming.MultiActorStrategy = defaultMultiActorStrategy
	}
}

func (c *Config) normalizeSubtitles() {
	exts := make([]string, 0, len(c.Subtitles.Extensions))
	seen := make(map[string]struct{}, len(c.Subtitles.Extensions))
	for _, ext := range c.Subtitles.Extensions {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = Default().Subtitles.Extensions
	}
	c.Subtitles.Extensions = exts

	c.Subtitles.Language = strings.TrimSpace(c.Subtitles.Language)
	if c.Subtitles.Language == "" {
		c.Subtitles.Language = defaultSubtitleLanguage
	}
}

func (c *Config) normalizeNetwork() {
	c.Network.UserAgent = strings.TrimSpace(c.Network.UserAgent)
	if c.Network.UserAgent == "" {
		c.Network.UserAgent = defaultUserAgent
	}
	if c.Network.RequestTimeoutSeconds <= 0 {
		c.Network.RequestTimeoutSeconds = defaultRequestTimeout
	}
	if c.Network.RetryAttempts <= 0 {
		c.Network.RetryAttempts = defaultRetryAttempts
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
