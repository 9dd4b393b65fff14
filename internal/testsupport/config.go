package testsupport

import (
	"path/filepath"
	"testing"

	"framegrab/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfgVal)
	}
	return &cfgVal
}

// WithScreens sets the per-run screenshot count.
func WithScreens(n int) ConfigOption {
	return func(c *config.Config) {
		c.Capture.Screens = n
	}
}

// WithHosts sets the upload host priority list.
func WithHosts(hosts ...string) ConfigOption {
	return func(c *config.Config) {
		c.Upload.Hosts = hosts
	}
}
