package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRemote()
	c.normalizeFetch()
	c.normalizeCategories()
	c.normalizeFuse()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(datasetDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.DatasetDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DatasetDir) == "" {
		c.Paths.DatasetDir = defaultDatasetDir
	}
	var err error
	if c.Paths.DatasetDir, err = expandPath(c.Paths.DatasetDir); err != nil {
		return fmt.Errorf("paths.dataset_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRemote() {
	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = defaultRemoteBaseURL
	}
	urls := make([]string, 0, len(c.Remote.MSCOCOURLs))
	seen := make(map[string]struct{}, len(c.Remote.MSCOCOURLs))
	for _, raw := range c.Remote.MSCOCOURLs {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		urls = append(urls, trimmed)
	}
	if len(urls) == 0 {
		urls = defaultMSCOCOURLs()
	}
	c.Remote.MSCOCOURLs = urls
}

func (c *Config) normalizeFetch() {
	if c.Fetch.Concurrency <= 0 {
		c.Fetch.Concurrency = 1
	}
	if c.Fetch.TimeoutSeconds < 0 {
		c.Fetch.TimeoutSeconds = 0
	}
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultFetchUserAgent
	}
}

func (c *Config) normalizeCategories() {
	c.Categories.Variant = strings.ToLower(strings.TrimSpace(c.Categories.Variant))
	if c.Categories.Variant == "" {
		c.Categories.Variant = defaultCategoryVariant
	}
}

func (c *Config) normalizeFuse() {
	if len(c.Fuse.COCO) == 0 {
		c.Fuse.COCO = defaultCOCOFuseRules()
	}
	if len(c.Fuse.YOLO) == 0 {
		c.Fuse.YOLO = defaultYOLOFuseRules()
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
}
