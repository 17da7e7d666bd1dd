package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpcf/fixturekit/deps"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "tests/_run/", cfg.Root)
	assert.Equal(t, "templates", cfg.TemplatesDir)
	assert.Equal(t, deps.SourceAuto, cfg.Dependencies.Source)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join("tests", "_run"), cfg.rootDir())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_dir: build/acceptance/
dependencies:
  source: legacy
  legacy: vendor/versions.yaml
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "build/acceptance/", cfg.Root)
	assert.Equal(t, "templates", cfg.TemplatesDir, "unset keys keep their defaults")
	assert.Equal(t, deps.SourceLegacy, cfg.Dependencies.Source)
	assert.Equal(t, "vendor/versions.yaml", cfg.Dependencies.Legacy)
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"empty root":       func(c *Config) { c.Root = " " },
		"nested templates": func(c *Config) { c.TemplatesDir = "a/b" },
		"dot templates":    func(c *Config) { c.TemplatesDir = ".." },
		"unknown source":   func(c *Config) { c.Dependencies.Source = "pip" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())

			_, err := NewModule(cfg)
			assert.Error(t, err)
		})
	}
}
