package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cpcf/fixturekit/state"
	"github.com/cpcf/fixturekit/write"
)

type Cache interface {
	// GenerateKey derives the cache key of a template from its name and the
	// options hash of the environment loading it.
	GenerateKey(name, optionsHash string) string
	// Location is the artifact path relative to the cache root.
	Location(key string) string
	Load(key string) (Artifact, error)
	Write(key, template string, content []byte) error
	// Timestamp is the zero time when no artifact exists for key.
	Timestamp(key string) time.Time
}

func generateKey(name, optionsHash string) string {
	sum := sha256.Sum256([]byte(optionsHash + ":" + name))
	return hex.EncodeToString(sum[:])
}

// FilesystemCache stores artifacts as <dir>/<key[:2]>/<key>.go and keeps a
// manifest of every artifact it wrote.
//
// Nothing is ever evicted: with isolated environments every compile adds a
// new artifact and manifest entry, so the directory grows for the lifetime
// of the cache. Removing it is left to the owner of the directory, usually
// the test runner's teardown.
type FilesystemCache struct {
	dir      string
	writer   write.Writer
	manifest *state.ManifestManager
	logger   *slog.Logger
}

func NewFilesystemCache(dir string, logger *slog.Logger) *FilesystemCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &FilesystemCache{
		dir:      dir,
		writer:   write.NewBaseWriter(),
		manifest: state.NewManifestManager(dir),
		logger:   logger,
	}
}

func (c *FilesystemCache) Dir() string {
	return c.dir
}

func (c *FilesystemCache) Manifest() *state.ManifestManager {
	return c.manifest
}

func (c *FilesystemCache) GenerateKey(name, optionsHash string) string {
	return generateKey(name, optionsHash)
}

func (c *FilesystemCache) Location(key string) string {
	return filepath.Join(key[:2], key+".go")
}

func (c *FilesystemCache) Load(key string) (Artifact, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, c.Location(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return Artifact{}, ErrCacheMiss
		}
		return Artifact{}, err
	}
	return ParseArtifact(content)
}

// Write stores content under key and records it in the manifest. Existing
// entries are kept.
func (c *FilesystemCache) Write(key, template string, content []byte) error {
	rel := c.Location(key)
	path := filepath.Join(c.dir, rel)

	err := c.writer.Write(path, content, write.WriteOptions{
		CreateDirs: true,
		Overwrite:  true,
		Atomic:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to write compiled file %s: %w", path, err)
	}

	manifest, err := c.manifest.LoadManifest()
	if err != nil {
		return err
	}
	if err := c.manifest.Record(manifest, key, rel, template); err != nil {
		return err
	}
	if err := c.manifest.SaveManifest(manifest); err != nil {
		return err
	}

	c.logger.Debug("wrote compiled template", "template", template, "path", path)
	return nil
}

func (c *FilesystemCache) Timestamp(key string) time.Time {
	info, err := os.Stat(filepath.Join(c.dir, c.Location(key)))
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// NullCache never stores anything.
type NullCache struct{}

func (NullCache) GenerateKey(name, optionsHash string) string { return generateKey(name, optionsHash) }
func (NullCache) Location(key string) string                  { return key + ".go" }
func (NullCache) Load(string) (Artifact, error)               { return Artifact{}, ErrCacheMiss }
func (NullCache) Write(string, string, []byte) error          { return nil }
func (NullCache) Timestamp(string) time.Time                  { return time.Time{} }
