package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DatasetDir string `toml:"dataset_dir"`
	LogDir     string `toml:"log_dir"`
}

// Remote contains the locations datasets are downloaded from.
type Remote struct {
	BaseURL    string   `toml:"base_url"`
	MSCOCOURLs []string `toml:"mscoco_urls"`
}

// Fetch contains configuration for archive retrieval.
type Fetch struct {
	Concurrency    int    `toml:"concurrency"`
	Unzip          bool   `toml:"unzip"`
	DeleteArchive  bool   `toml:"delete_archive"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
	Progress       bool   `toml:"progress"`
}

// Categories selects the category table written by the converters.
type Categories struct {
	Variant string `toml:"variant"`
}

// Rule rewrites one category id into another.
type Rule struct {
	From int `toml:"from"`
	To   int `toml:"to"`
}

// Fuse contains the declared left/right fusion tables for each label format.
type Fuse struct {
	COCO []Rule `toml:"coco"`
	YOLO []Rule `toml:"yolo"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for humanparts.
//
// Configuration sections:
//   - Paths: dataset root and log directory
//   - Remote: dataset mirror URLs
//   - Fetch: download concurrency, extraction, and timeouts
//   - Categories: which category table the converters emit
//   - Fuse: left/right category fusion tables
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Remote     Remote     `toml:"remote"`
	Fetch      Fetch      `toml:"fetch"`
	Categories Categories `toml:"categories"`
	Fuse       Fuse       `toml:"fuse"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/humanparts/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/humanparts/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("humanparts.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory. The dataset directory is created
// lazily by the commands that write into it.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// FuseMapping returns the configured fusion rules for a label format ("coco" or "yolo")
// as a lookup table.
func (c *Config) FuseMapping(format string) map[int]int {
	var rules []Rule
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "coco":
		rules = c.Fuse.COCO
	case "yolo":
		rules = c.Fuse.YOLO
	}
	mapping := make(map[int]int, len(rules))
	for _, rule := range rules {
		mapping[rule.From] = rule.To
	}
	return mapping
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
