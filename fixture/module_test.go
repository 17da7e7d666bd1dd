package fixture

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpcf/fixturekit/deps"
	"github.com/cpcf/fixturekit/engine"
	"github.com/cpcf/fixturekit/state"
)

type stubResolver struct {
	satisfied bool
	err       error
	calls     []string
}

func (s *stubResolver) Name() string { return "stub" }

func (s *stubResolver) Satisfies(pkg, constraint string) (bool, error) {
	s.calls = append(s.calls, pkg+" "+constraint)
	return s.satisfied, s.err
}

func newModule(t *testing.T, opts ...Option) *Module {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Root = t.TempDir() + string(filepath.Separator)
	cfg.Dependencies.Source = deps.SourceNone

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := NewModule(cfg, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return m
}

func render(t *testing.T, tmpl *engine.Template, data map[string]any) string {
	t.Helper()
	var buf strings.Builder
	require.NoError(t, tmpl.Execute(&buf, data))
	return buf.String()
}

func TestStageTemplateCreatesDirectoryAndOverwrites(t *testing.T) {
	m := newModule(t)

	_, err := os.Stat(m.TemplatesDir())
	require.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, m.StageTemplate("A", "C"))
	require.NoError(t, m.StageTemplate("A", "C2"))
	require.NoError(t, m.StageTemplate("B", "other"))

	content, err := os.ReadFile(filepath.Join(m.Root(), "templates", "A"))
	require.NoError(t, err)
	assert.Equal(t, "C2", string(content))

	entries, err := os.ReadDir(m.TemplatesDir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStageTemplateIOFailure(t *testing.T) {
	m := newModule(t)
	require.NoError(t, os.WriteFile(m.TemplatesDir(), []byte("not a dir"), 0o644))

	err := m.StageTemplate("A", "C")
	require.Error(t, err)
	assert.False(t, IsSkip(err))
}

func TestCompileTemplateWritesArtifact(t *testing.T) {
	m := newModule(t)
	require.NoError(t, m.StageTemplate("t.twig", "Hello {{ name }}"))

	tmpl, err := m.Compile("t.twig", "/cache")
	require.NoError(t, err)
	assert.Equal(t, "Hello psalm", render(t, tmpl, map[string]any{"name": "psalm"}))

	cacheDir := filepath.Join(m.Root(), "cache")
	mm := state.NewManifestManager(cacheDir)
	manifest, err := mm.LoadManifest()
	require.NoError(t, err)

	entries := mm.EntriesFor(manifest, "t.twig")
	require.Len(t, entries, 1)

	content, err := os.ReadFile(filepath.Join(cacheDir, filepath.FromSlash(entries[0].Path)))
	require.NoError(t, err)
	artifact, err := engine.ParseArtifact(content)
	require.NoError(t, err)
	assert.Equal(t, "Hello {{ name }}", artifact.TemplateSource)
	assert.Equal(t, "templates/t.twig", artifact.SourcePath, "environment runs in debug mode")
	assert.Contains(t, artifact.Environment, "isolation_")
}

func TestCompileTemplateCreatesNestedCacheDir(t *testing.T) {
	m := newModule(t)
	require.NoError(t, m.StageTemplate("t.twig", "x"))

	require.NoError(t, m.CompileTemplate("t.twig", "var/cache/twig"))

	info, err := os.Stat(filepath.Join(m.Root(), "var", "cache", "twig"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCompileTemplateNotFound(t *testing.T) {
	m := newModule(t)

	err := m.CompileTemplate("missing.twig", "cache")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrTemplateNotFound)
	assert.NotErrorIs(t, err, ErrInvalidCacheDir)

	_, statErr := os.Stat(m.TemplatesDir())
	assert.NoError(t, statErr, "templates directory is created on demand")
}

func TestCompileTemplateInvalidCacheDir(t *testing.T) {
	m := newModule(t)
	require.NoError(t, m.StageTemplate("t.twig", "x"))
	require.NoError(t, os.WriteFile(filepath.Join(m.Root(), "blocker"), []byte("file"), 0o644))

	for _, dir := range []string{"blocker", "blocker/cache"} {
		t.Run(dir, func(t *testing.T) {
			err := m.CompileTemplate("t.twig", dir)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCacheDir)
			assert.NotErrorIs(t, err, engine.ErrTemplateNotFound)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Error(), "does not exist or is not readable")
		})
	}
}

func TestCompileTemplateNeverReusesPreviousRun(t *testing.T) {
	m := newModule(t)

	require.NoError(t, m.StageTemplate("t.twig", "{{ x }}"))
	require.NoError(t, m.CompileTemplate("t.twig", "/cache"))

	require.NoError(t, m.StageTemplate("t.twig", "{{ y }}"))
	second, err := m.Compile("t.twig", "/cache")
	require.NoError(t, err)

	assert.False(t, second.FromCache())
	assert.Equal(t, "Y", render(t, second, map[string]any{"x": "X", "y": "Y"}))

	cacheDir := filepath.Join(m.Root(), "cache")
	mm := state.NewManifestManager(cacheDir)
	manifest, err := mm.LoadManifest()
	require.NoError(t, err)
	require.Len(t, mm.EntriesFor(manifest, "t.twig"), 2)

	entry, ok := mm.GetEntry(manifest, second.Key())
	require.True(t, ok)
	content, err := os.ReadFile(filepath.Join(cacheDir, filepath.FromSlash(entry.Path)))
	require.NoError(t, err)
	artifact, err := engine.ParseArtifact(content)
	require.NoError(t, err)
	assert.Equal(t, "{{ y }}", artifact.TemplateSource)

	for _, e := range mm.EntriesFor(manifest, "t.twig") {
		if e.Key == second.Key() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(cacheDir, filepath.FromSlash(e.Path)))
		require.NoError(t, err)
		previous, err := engine.ParseArtifact(content)
		require.NoError(t, err)
		assert.Equal(t, "{{ x }}", previous.TemplateSource)
	}
}

func TestEnvironmentDescriptor(t *testing.T) {
	m := newModule(t)

	a, err := m.Environment("cache")
	require.NoError(t, err)
	b, err := m.Environment("cache")
	require.NoError(t, err)

	opts := a.Options()
	assert.True(t, opts.AutoReload)
	assert.True(t, opts.Debug)
	assert.False(t, opts.StrictVariables)
	assert.Zero(t, opts.Optimizations)

	require.Len(t, a.Extensions(), 1)
	require.Len(t, b.Extensions(), 1)
	assert.NotEqual(t, a.Extensions()[0], b.Extensions()[0])
	assert.NotEqual(t, a.CacheKey("t.twig"), b.CacheKey("t.twig"))
}

func TestRequireDependency(t *testing.T) {
	satisfied := &stubResolver{satisfied: true}
	m := newModule(t, WithResolver(satisfied))
	assert.NoError(t, m.RequireDependency("vendor/pkg", ">=1.0"))
	assert.Equal(t, []string{"vendor/pkg >=1.0"}, satisfied.calls)

	m = newModule(t, WithResolver(&stubResolver{satisfied: false}))
	err := m.RequireDependency("vendor/pkg", ">=2.0")
	require.Error(t, err)
	assert.True(t, IsSkip(err))
	assert.Equal(t, "This scenario requires vendor/pkg to match >=2.0", err.Error())

	broken := &deps.MalformedMetadataError{Package: "vendor/pkg", Version: "1.2.0", Reason: "version must contain @"}
	m = newModule(t, WithResolver(&stubResolver{err: broken}))
	err = m.RequireDependency("vendor/pkg", ">=1.0")
	require.Error(t, err)
	assert.False(t, IsSkip(err))
	assert.ErrorIs(t, err, deps.ErrMalformedMetadata)
}

func TestRequireDependencyWithoutMetadataSkips(t *testing.T) {
	m := newModule(t)
	assert.Equal(t, "none", m.Resolver().Name())

	err := m.RequireDependency("vendor/pkg", ">=1.0")
	assert.True(t, IsSkip(err))
}

func TestRequireDependencyLegacyMetadata(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, "versions.yaml")
	require.NoError(t, os.WriteFile(legacy, []byte("vendor/pkg: \"1.2.0@abcdef\"\nvendor/bad: \"1.2.0\"\n"), 0o644))

	cfg := DefaultConfig()
	cfg.Root = dir
	cfg.Dependencies = deps.Config{Source: deps.SourceAuto, Installed: filepath.Join(dir, "installed.json"), Legacy: legacy}
	m, err := NewModule(cfg)
	require.NoError(t, err)
	assert.Equal(t, "legacy", m.Resolver().Name())

	assert.NoError(t, m.RequireDependency("vendor/pkg", ">=1.0"))
	assert.True(t, IsSkip(m.RequireDependency("vendor/pkg", ">=2.0")))

	err = m.RequireDependency("vendor/bad", ">=1.0")
	assert.ErrorIs(t, err, deps.ErrMalformedMetadata)
	assert.False(t, IsSkip(err))
}

func TestRequireDependencyInstalledMetadata(t *testing.T) {
	dir := t.TempDir()
	installed := filepath.Join(dir, "installed.json")
	require.NoError(t, os.WriteFile(installed, []byte(`{"packages":[{"name":"vendor/pkg","version":"1.2.0"}]}`), 0o644))

	cfg := DefaultConfig()
	cfg.Root = dir
	cfg.Dependencies = deps.Config{Source: deps.SourceInstalled, Installed: installed}
	m, err := NewModule(cfg)
	require.NoError(t, err)

	assert.NoError(t, m.RequireDependency("vendor/pkg", ">=1.0"))

	err = m.RequireDependency("vendor/pkg", ">=2.0")
	require.True(t, IsSkip(err))
	assert.Contains(t, err.Error(), "vendor/pkg")
	assert.Contains(t, err.Error(), ">=2.0")
}
