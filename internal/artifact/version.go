package artifact

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

var (
	ErrMalformedArtifact          = errors.New("malformed artifact")
	ErrUnsupportedCompilerVersion = errors.New("unsupported compiler version")
	ErrHashComputation            = errors.New("hash computation failed")
)

// Version is the major version of the compiler that produced an artifact.
type Version int

const (
	// VersionZero artifacts are Cairo 0 programs.
	VersionZero Version = 0
	// VersionTwo artifacts are Cairo 2 compiled (CASM) classes.
	VersionTwo Version = 2
)

func (v Version) String() string {
	switch v {
	case VersionZero:
		return "zero"
	case VersionTwo:
		return "two"
	default:
		return "version(" + strconv.Itoa(int(v)) + ")"
	}
}

// ParseVersion maps a stored integer tag back to a Version.
func ParseVersion(tag int) (Version, error) {
	switch Version(tag) {
	case VersionZero, VersionTwo:
		return Version(tag), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedCompilerVersion, tag)
	}
}

type versionHeader struct {
	CompilerVersion json.RawMessage `json:"compiler_version"`
}

// DetectVersion reads the "compiler_version" field of a compiled artifact
// and returns its major version.
func DetectVersion(raw []byte) (Version, error) {
	var header versionHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
	}
	if len(header.CompilerVersion) == 0 {
		return 0, fmt.Errorf("%w: compiler_version field not found", ErrMalformedArtifact)
	}

	var full string
	if err := json.Unmarshal(header.CompilerVersion, &full); err != nil {
		return 0, fmt.Errorf("%w: compiler_version is not a string", ErrMalformedArtifact)
	}

	major, _, _ := strings.Cut(full, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0, fmt.Errorf("%w: compiler_version %q has no numeric major component", ErrMalformedArtifact, full)
	}

	return ParseVersion(n)
}
