// Package fixture prepares acceptance-scenario preconditions: staged
// templates, compiled template caches and dependency version gates.
package fixture

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cpcf/fixturekit/deps"
	"github.com/cpcf/fixturekit/engine"
	"github.com/cpcf/fixturekit/processors"
)

// Module holds the configuration shared by the fixture operations. It keeps
// no state between calls besides the resolver chosen at construction.
type Module struct {
	cfg      Config
	logger   *slog.Logger
	resolver deps.Resolver
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Module) {
		m.logger = logger
	}
}

// WithResolver overrides the resolver NewModule would build from the configuration.
func WithResolver(r deps.Resolver) Option {
	return func(m *Module) {
		m.resolver = r
	}
}

// NewModule validates cfg and picks the dependency resolver its
// dependencies section selects.
func NewModule(cfg Config, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Module{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.resolver == nil {
		r, err := deps.NewResolver(cfg.Dependencies, m.logger)
		if err != nil {
			return nil, err
		}
		m.resolver = r
	}

	return m, nil
}

// Root is the cleaned fixture root.
func (m *Module) Root() string {
	return m.cfg.rootDir()
}

// TemplatesDir is the directory StageTemplate writes into.
func (m *Module) TemplatesDir() string {
	return filepath.Join(m.Root(), m.cfg.TemplatesDir)
}

func (m *Module) Resolver() deps.Resolver {
	return m.resolver
}

// StageTemplate writes source verbatim to the templates directory,
// replacing any previous template with the same name.
func (m *Module) StageTemplate(name, source string) error {
	dir := m.TemplatesDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create template directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return fmt.Errorf("failed to write template %s: %w", path, err)
	}

	m.logger.Debug("staged template", "template", name, "path", path)
	return nil
}

// CompileTemplate compiles a staged template into cacheDir, relative to the
// fixture root.
func (m *Module) CompileTemplate(name, cacheDir string) error {
	_, err := m.Compile(name, cacheDir)
	return err
}

// Compile is CompileTemplate returning the loaded template.
func (m *Module) Compile(name, cacheDir string) (*engine.Template, error) {
	env, err := m.Environment(cacheDir)
	if err != nil {
		return nil, err
	}
	return env.Load(name)
}

// Environment builds a fresh environment compiling into cacheDir. Each call
// registers its own IsolationExtension, so no two environments built here
// share a cache key.
func (m *Module) Environment(cacheDir string) (*engine.Environment, error) {
	dir := m.CacheDir(cacheDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.logger.Warn("failed to create cache directory", "dir", dir, "error", err)
	}

	templates := m.TemplatesDir()
	if err := os.MkdirAll(templates, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create template directory %s: %w", templates, err)
	}

	if err := checkCacheDir(dir); err != nil {
		return nil, err
	}

	loader := engine.NewFilesystemLoader(os.DirFS(m.Root()), m.cfg.TemplatesDir)
	env := engine.NewEnvironment(loader,
		engine.WithLogger(m.logger),
		engine.WithCache(engine.NewFilesystemCache(dir, m.logger)),
		engine.WithAutoReload(true),
		engine.WithDebug(true),
		engine.WithOptimizations(0),
		engine.WithStrictVariables(false),
		engine.WithPostProcessor(processors.NewGoImports()),
	)

	if err := env.AddExtension(engine.NewIsolationExtension()); err != nil {
		return nil, err
	}

	return env, nil
}

// CacheDir resolves cacheDir against the fixture root.
func (m *Module) CacheDir(cacheDir string) string {
	return filepath.Join(m.Root(), strings.TrimLeft(cacheDir, `/\`))
}

func checkCacheDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return &ConfigError{Dir: dir, Err: err}
	}
	if !info.IsDir() {
		return &ConfigError{Dir: dir, Err: fmt.Errorf("not a directory")}
	}

	f, err := os.Open(dir)
	if err != nil {
		return &ConfigError{Dir: dir, Err: err}
	}
	return f.Close()
}

// RequireDependency returns a SkipError unless pkg is installed in a version
// matching constraint. Broken metadata is returned as is.
func (m *Module) RequireDependency(pkg, constraint string) error {
	satisfied, err := m.resolver.Satisfies(pkg, constraint)
	if err != nil {
		return err
	}
	if !satisfied {
		return &SkipError{Message: fmt.Sprintf("This scenario requires %s to match %s", pkg, constraint)}
	}

	m.logger.Debug("dependency satisfied", "package", pkg, "constraint", constraint, "resolver", m.resolver.Name())
	return nil
}
