package deps

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// normalized four-segment versions such as 1.2.0.0 or 1.2.0.0-beta1
var fourSegments = regexp.MustCompile(`^v?(\d+\.\d+\.\d+)\.\d+(.*)$`)

func normalizeVersion(version string) (string, error) {
	v := strings.TrimSpace(version)
	if v == "" || strings.HasPrefix(v, "dev-") || strings.HasSuffix(v, "-dev") {
		return "", fmt.Errorf("%w: %q is not a release version", ErrIndeterminate, version)
	}
	if m := fourSegments.FindStringSubmatch(v); m != nil {
		v = m[1] + m[2]
	}
	return v, nil
}

// Match reports whether version satisfies constraint. An unparsable version
// or constraint yields an error wrapping ErrIndeterminate.
//
// Like Composer, a prerelease such as 6.0.0-RC1 satisfies a constraint
// without a prerelease part when its release version does, so it matches
// >=5.0 but not <6.0 or ^5.0.
func Match(version, constraint string) (bool, error) {
	normalized, err := normalizeVersion(version)
	if err != nil {
		return false, err
	}

	v, err := semver.NewVersion(normalized)
	if err != nil {
		return false, fmt.Errorf("%w: version %q: %v", ErrIndeterminate, version, err)
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("%w: constraint %q: %v", ErrIndeterminate, constraint, err)
	}

	if v.Prerelease() != "" && !strings.Contains(constraint, "-") {
		release, err := v.SetPrerelease("")
		if err != nil {
			return false, fmt.Errorf("%w: version %q: %v", ErrIndeterminate, version, err)
		}
		v = &release
	}

	return c.Check(v), nil
}
