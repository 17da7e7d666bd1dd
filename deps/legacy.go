package deps

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
)

// LegacyResolver answers from a YAML map of package names to
// "<version>@<ref>" strings.
type LegacyResolver struct {
	path   string
	logger *slog.Logger
}

func NewLegacyResolver(path string, logger *slog.Logger) *LegacyResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LegacyResolver{path: path, logger: logger}
}

func (r *LegacyResolver) Name() string {
	return "legacy"
}

func (r *LegacyResolver) Satisfies(pkg, constraint string) (bool, error) {
	data, err := readMetadata(r.path)
	if err != nil {
		return false, err
	}
	if data == nil {
		r.logger.Warn("legacy package metadata not found", "path", r.path)
		return false, nil
	}

	var versions map[string]string
	if err := yaml.Unmarshal(data, &versions); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", r.path, err)
	}

	raw, ok := versions[pkg]
	if !ok {
		r.logger.Debug("package not installed", "package", pkg)
		return false, nil
	}

	version, _, found := strings.Cut(raw, "@")
	if !found {
		return false, &MalformedMetadataError{Package: pkg, Version: raw, Reason: "version must contain @"}
	}

	satisfied, err := Match(version, constraint)
	if err != nil {
		r.logger.Debug("cannot match legacy version", "package", pkg, "version", version, "constraint", constraint, "error", err)
		return false, nil
	}
	return satisfied, nil
}
