package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateCategories(); err != nil {
		return err
	}
	if err := c.validateFuse(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRemote() error {
	if err := validateURL("remote.base_url", c.Remote.BaseURL); err != nil {
		return err
	}
	for i, raw := range c.Remote.MSCOCOURLs {
		if err := validateURL(fmt.Sprintf("remote.mscoco_urls[%d]", i), raw); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.Concurrency > maxFetchConcurrency {
		return fmt.Errorf("fetch.concurrency must be at most %d", maxFetchConcurrency)
	}
	if c.Fetch.DeleteArchive && !c.Fetch.Unzip {
		return errors.New("fetch.delete_archive requires fetch.unzip")
	}
	return nil
}

func (c *Config) validateCategories() error {
	switch c.Categories.Variant {
	case categoryVariantParts7, categoryVariantFused5:
		return nil
	default:
		return fmt.Errorf("categories.variant must be %q or %q, got %q", categoryVariantParts7, categoryVariantFused5, c.Categories.Variant)
	}
}

func (c *Config) validateFuse() error {
	for name, rules := range map[string][]Rule{"fuse.coco": c.Fuse.COCO, "fuse.yolo": c.Fuse.YOLO} {
		seen := make(map[int]struct{}, len(rules))
		for _, rule := range rules {
			if rule.From < 0 || rule.To < 0 {
				return fmt.Errorf("%s: category ids must be >= 0 (from=%d to=%d)", name, rule.From, rule.To)
			}
			if _, dup := seen[rule.From]; dup {
				return fmt.Errorf("%s: duplicate rule for category %d", name, rule.From)
			}
			seen[rule.From] = struct{}{}
		}
	}
	return nil
}

func validateURL(key, raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s is missing a host", key)
	}
	return nil
}
