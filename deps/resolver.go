package deps

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

type Resolver interface {
	Name() string
	// Satisfies returns an error only when the metadata is unusable.
	Satisfies(pkg, constraint string) (bool, error)
}

type Source string

const (
	SourceAuto      Source = "auto"
	SourceInstalled Source = "installed"
	SourceLegacy    Source = "legacy"
	SourceNone      Source = "none"
)

const (
	DefaultInstalledPath = "vendor/composer/installed.json"
	DefaultLegacyPath    = "vendor/package-versions.yaml"
)

type Config struct {
	Source    Source `yaml:"source"`
	Installed string `yaml:"installed"`
	Legacy    string `yaml:"legacy"`
}

func DefaultConfig() Config {
	return Config{
		Source:    SourceAuto,
		Installed: DefaultInstalledPath,
		Legacy:    DefaultLegacyPath,
	}
}

func (c Config) Validate() error {
	switch c.Source {
	case SourceAuto, SourceInstalled, SourceLegacy, SourceNone:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.Source)
	}
}

// NewResolver picks the resolver described by cfg. SourceAuto prefers
// installed metadata over legacy metadata and falls back to NoneResolver
// when neither file exists.
func NewResolver(cfg Config, logger *slog.Logger) (Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	source := cfg.Source
	if source == SourceAuto {
		source = detect(cfg)
	}

	var r Resolver
	switch source {
	case SourceInstalled:
		r = NewInstalledResolver(cfg.Installed, logger)
	case SourceLegacy:
		r = NewLegacyResolver(cfg.Legacy, logger)
	default:
		r = NoneResolver{}
	}

	logger.Debug("selected dependency resolver", "resolver", r.Name(), "configured", cfg.Source)
	return r, nil
}

func detect(cfg Config) Source {
	if exists(cfg.Installed) {
		return SourceInstalled
	}
	if exists(cfg.Legacy) {
		return SourceLegacy
	}
	return SourceNone
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// readMetadata returns nil content without error when the file is absent.
func readMetadata(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read package metadata %s: %w", path, err)
	}
	return data, nil
}

// NoneResolver is used when no metadata is available; nothing is satisfied.
type NoneResolver struct{}

func (NoneResolver) Name() string { return "none" }

func (NoneResolver) Satisfies(string, string) (bool, error) { return false, nil }
