// Package artifact derives content hashes and builtin requirements from
// compiled Cairo artifacts.
package artifact

import (
	"fmt"
	"slices"
)

// Canonical is the content identity of an artifact.
type Canonical struct {
	Version Version
	// Hash is 0x-prefixed lowercase hex.
	Hash string
	// Builtins is sorted and free of duplicates.
	Builtins []string
}

// Canonicalize hashes raw according to version and extracts the builtins it
// requires. The result depends only on raw and version.
func Canonicalize(raw []byte, version Version) (*Canonical, error) {
	switch version {
	case VersionZero:
		return canonicalizeZero(raw)
	case VersionTwo:
		return canonicalizeTwo(raw)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCompilerVersion, int(version))
	}
}

// Inspect detects the version of raw and canonicalizes it.
func Inspect(raw []byte) (*Canonical, error) {
	version, err := DetectVersion(raw)
	if err != nil {
		return nil, err
	}
	return Canonicalize(raw, version)
}

func normalizeBuiltins(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []string{}
	}
	return out
}
