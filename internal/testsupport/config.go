package testsupport

import (
	"path/filepath"
	"testing"

	"humanparts/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Progress bars are disabled and fetches run sequentially unless an option
// says otherwise.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DatasetDir = filepath.Join(base, "datasets")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Fetch.Concurrency = 1
	cfgVal.Fetch.Progress = false
	cfgVal.Fetch.TimeoutSeconds = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBaseURL points dataset downloads at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remote.BaseURL = url
	}
}

// WithMSCOCOURLs overrides the MS-COCO archive list.
func WithMSCOCOURLs(urls ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remote.MSCOCOURLs = append([]string(nil), urls...)
	}
}

// WithVariant selects the category variant.
func WithVariant(variant string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Categories.Variant = variant
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DatasetDir)
}
