// Package state keeps a manifest of the compiled artifacts stored in a cache directory.
package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ManifestFile is the name of the index file kept at the root of a cache directory.
const ManifestFile = ".fixturekit.cache.json"

type ManifestEntry struct {
	Key      string    `json:"key"`
	Path     string    `json:"path"`
	Template string    `json:"template,omitempty"`
	Hash     string    `json:"hash"`
	Size     int64     `json:"size"`
	Written  time.Time `json:"written"`
}

type Manifest struct {
	Version   string                   `json:"version"`
	Updated   time.Time                `json:"updated"`
	Generator string                   `json:"generator"`
	CacheRoot string                   `json:"cache_root"`
	Entries   map[string]ManifestEntry `json:"entries"`
}

type ManifestManager struct {
	cacheRoot    string
	manifestPath string
}

func NewManifestManager(cacheRoot string) *ManifestManager {
	return &ManifestManager{
		cacheRoot:    cacheRoot,
		manifestPath: filepath.Join(cacheRoot, ManifestFile),
	}
}

func (mm *ManifestManager) Path() string {
	return mm.manifestPath
}

func (mm *ManifestManager) LoadManifest() (*Manifest, error) {
	if _, err := os.Stat(mm.manifestPath); os.IsNotExist(err) {
		return mm.createEmptyManifest(), nil
	}

	file, err := os.Open(mm.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest file: %w", err)
	}
	defer file.Close()

	var manifest Manifest
	if err := json.NewDecoder(file).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if manifest.Entries == nil {
		manifest.Entries = make(map[string]ManifestEntry)
	}

	return &manifest, nil
}

func (mm *ManifestManager) SaveManifest(manifest *Manifest) error {
	tmpPath := mm.manifestPath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(manifest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary manifest file: %w", err)
	}

	if err := os.Rename(tmpPath, mm.manifestPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move manifest file: %w", err)
	}

	return nil
}

// Record stats the artifact at rel (relative to the cache root) and stores it under key.
func (mm *ManifestManager) Record(manifest *Manifest, key, rel, template string) error {
	fullPath := filepath.Join(mm.cacheRoot, rel)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return fmt.Errorf("failed to read artifact %s: %w", fullPath, err)
	}

	if manifest.Entries == nil {
		manifest.Entries = make(map[string]ManifestEntry)
	}
	manifest.Entries[key] = ManifestEntry{
		Key:      key,
		Path:     filepath.ToSlash(rel),
		Template: template,
		Hash:     fmt.Sprintf("%x", sha256.Sum256(content)),
		Size:     int64(len(content)),
		Written:  time.Now(),
	}
	manifest.Updated = time.Now()

	return nil
}

func (mm *ManifestManager) GetEntry(manifest *Manifest, key string) (ManifestEntry, bool) {
	if manifest.Entries == nil {
		return ManifestEntry{}, false
	}
	entry, exists := manifest.Entries[key]
	return entry, exists
}

// ListEntries returns the entries ordered by key.
func (mm *ManifestManager) ListEntries(manifest *Manifest) []ManifestEntry {
	entries := make([]ManifestEntry, 0, len(manifest.Entries))
	for _, entry := range manifest.Entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// EntriesFor returns every entry compiled from the given template name.
func (mm *ManifestManager) EntriesFor(manifest *Manifest, template string) []ManifestEntry {
	var entries []ManifestEntry
	for _, entry := range mm.ListEntries(manifest) {
		if entry.Template == template {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (mm *ManifestManager) createEmptyManifest() *Manifest {
	return &Manifest{
		Version:   "1.0",
		Updated:   time.Now(),
		Generator: "fixturekit",
		CacheRoot: mm.cacheRoot,
		Entries:   make(map[string]ManifestEntry),
	}
}
