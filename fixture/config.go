package fixture

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cpcf/fixturekit/config"
	"github.com/cpcf/fixturekit/deps"
)

const (
	DefaultRoot         = "tests/_run/"
	DefaultTemplatesDir = "templates"
)

// Config is the YAML configuration of a Module.
type Config struct {
	// Root is the fixture root every staged file and cache lives under.
	Root         string      `yaml:"default_dir"`
	TemplatesDir string      `yaml:"templates_dir"`
	Dependencies deps.Config `yaml:"dependencies"`
}

// DefaultConfig returns a Config rooted at DefaultRoot that auto-detects
// dependency metadata.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

func (c *Config) SetDefaults() {
	c.Root = DefaultRoot
	c.TemplatesDir = DefaultTemplatesDir
	c.Dependencies = deps.DefaultConfig()
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("default_dir must not be empty")
	}
	if c.TemplatesDir == "" || strings.ContainsAny(c.TemplatesDir, `/\`) || c.TemplatesDir == "." || c.TemplatesDir == ".." {
		return fmt.Errorf("templates_dir must be a single directory name, got %q", c.TemplatesDir)
	}
	return c.Dependencies.Validate()
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	var c Config
	if err := config.LoadYAML(path, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) rootDir() string {
	return filepath.Clean(c.Root)
}
