// Package deps resolves whether an installed package satisfies a version
// constraint.
//
// Two metadata formats are supported, each behind its own Resolver:
//
//   - InstalledResolver reads an installed.json document listing packages
//     and their versions.
//   - LegacyResolver reads a map of package names to "<version>@<ref>"
//     strings.
//
// The resolver is chosen once, from Config, by NewResolver. A resolver
// answers false whenever it cannot reach a determinate answer; only broken
// metadata is reported as an error.
package deps
