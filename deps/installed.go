package deps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
)

type installedPackage struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	VersionNormalized string `json:"version_normalized"`
}

// installed.json is either {"packages": [...]} or, in older layouts, a bare array.
type installedDocument struct {
	Packages []installedPackage `json:"packages"`
}

// InstalledResolver answers from an installed.json document.
type InstalledResolver struct {
	path   string
	logger *slog.Logger
}

func NewInstalledResolver(path string, logger *slog.Logger) *InstalledResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &InstalledResolver{path: path, logger: logger}
}

func (r *InstalledResolver) Name() string {
	return "installed"
}

func (r *InstalledResolver) Satisfies(pkg, constraint string) (bool, error) {
	packages, err := r.packages()
	if err != nil {
		return false, err
	}
	if packages == nil {
		r.logger.Warn("installed package metadata not found", "path", r.path)
		return false, nil
	}

	for _, p := range packages {
		if p.Name != pkg {
			continue
		}

		version := p.Version
		if version == "" {
			version = p.VersionNormalized
		}

		ok, err := Match(version, constraint)
		if err != nil {
			r.logger.Debug("cannot match installed version", "package", pkg, "version", version, "constraint", constraint, "error", err)
			return false, nil
		}
		return ok, nil
	}

	r.logger.Debug("package not installed", "package", pkg)
	return false, nil
}

func (r *InstalledResolver) packages() ([]installedPackage, error) {
	data, err := readMetadata(r.path)
	if err != nil || data == nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var list []installedPackage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", r.path, err)
		}
		return nonNil(list), nil
	}

	var doc installedDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.path, err)
	}
	return nonNil(doc.Packages), nil
}

func nonNil(list []installedPackage) []installedPackage {
	if list == nil {
		return []installedPackage{}
	}
	return list
}
