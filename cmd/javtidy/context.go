package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"javtidy/internal/config"
	"javtidy/internal/driver"
	"javtidy/internal/fetch"
	"javtidy/internal/journal"
	"javtidy/internal/template"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) openJournal(cfg *config.Config) (*journal.Store, error) {
	store, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return store, nil
}

// buildDriver assembles the template set, HTTP client, and pipeline driver
// that both the daemon and the one-shot commands run on.
func (c *commandContext) buildDriver(cfg *config.Config, store *journal.Store, log *slog.Logger) (*driver.Driver, error) {
	workflows, err := template.LoadSet(cfg.Paths.TemplateDir, cfg.Templates.Priority)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	if len(workflows) == 0 {
		return nil, fmt.Errorf("no templates found in %s", cfg.Paths.TemplateDir)
	}

	client := fetch.New(
		time.Duration(cfg.Network.RequestTimeoutSeconds)*time.Second,
		cfg.Network.RetryAttempts,
		log,
	)
	client.SetUserAgent(cfg.Network.UserAgent)

	drv, err := driver.New(cfg, workflows, client, store, log)
	if err != nil {
		return nil, fmt.Errorf("build driver: %w", err)
	}
	return drv, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
