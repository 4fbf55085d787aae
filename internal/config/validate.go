package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProcess(); err != nil {
		return err
	}
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.InputDir == c.Paths.OutputDir {
		return errors.New("paths.input_dir and paths.output_dir must differ")
	}
	return nil
}

func (c *Config) validateProcess() error {
	for _, pattern := range c.Process.IgnoredIDPatterns {
		if _, err := regexp.Compile("(?i)" + regexp.QuoteMeta(pattern)); err != nil {
			return fmt.Errorf("process.ignored_id_pattern %q: %w", pattern, err)
		}
	}
	if err := ensurePositiveMap(map[string]int{
		"process.thread_limit":            c.Process.ThreadLimit,
		"process.maximum_fetch_count":     c.Process.MaximumFetchCount,
		"process.lock_timeout_seconds":    c.Process.LockTimeoutSeconds,
		"network.request_timeout_seconds": c.Network.RequestTimeoutSeconds,
		"network.retry_attempts":          c.Network.RetryAttempts,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNaming() error {
	tmpl := c.Naming.Template
	if strings.TrimSpace(tmpl) == "" {
		return errors.New("naming.template must be set")
	}
	if strings.HasPrefix(tmpl, "/") || strings.HasSuffix(tmpl, "/") {
		return errors.New("naming.template must not begin or end with a path separator")
	}
	if !strings.Contains(tmpl, "$id$") {
		return errors.New("naming.template must reference $id$ so destinations stay unique")
	}
	switch c.Naming.MultiActorStrategy {
	case "first_only", "merge", "symlink", "hardlink":
	default:
		return fmt.Errorf("naming.multi_actor_strategy %q is not one of first_only, merge, symlink, hardlink", c.Naming.MultiActorStrategy)
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if !c.Subtitles.Migrate {
		return nil
	}
	if len(c.Subtitles.Extensions) == 0 {
		return errors.New("subtitles.extensions must include at least one extension when subtitles.migrate is true")
	}
	if strings.TrimSpace(c.Subtitles.Language) == "" {
		return errors.New("subtitles.language must be set when subtitles.migrate is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
