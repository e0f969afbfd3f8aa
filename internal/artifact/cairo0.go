package artifact

import (
	"fmt"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/goccy/go-json"

	"github.com/ignis-runtime/program-registry/internal/layout"
)

const (
	mainEntrypoint    = "__main__.main"
	bootloaderVersion = 0
)

type cairo0Program struct {
	Prime       string                      `json:"prime"`
	Data        []string                    `json:"data"`
	Builtins    []string                    `json:"builtins"`
	Identifiers map[string]cairo0Identifier `json:"identifiers"`
}

type cairo0Identifier struct {
	Type string  `json:"type"`
	PC   *uint64 `json:"pc"`
}

// StrippedProgram holds the parts of a Cairo 0 program that take part in its
// hash.
type StrippedProgram struct {
	Data     []*felt.Felt
	Builtins []string
	Main     uint64
}

// Strip parses a Cairo 0 program and reduces it to a StrippedProgram.
func Strip(raw []byte) (*StrippedProgram, error) {
	var p cairo0Program
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
	}

	if err := checkPrime(p.Prime); err != nil {
		return nil, err
	}

	for _, b := range p.Builtins {
		if !layout.IsKnownBuiltin(b) {
			return nil, fmt.Errorf("%w: unknown builtin %q", ErrMalformedArtifact, b)
		}
	}

	entry, ok := p.Identifiers[mainEntrypoint]
	if !ok || entry.PC == nil {
		return nil, fmt.Errorf("%w: entrypoint %s not found", ErrMalformedArtifact, mainEntrypoint)
	}

	data := make([]*felt.Felt, len(p.Data))
	for i, word := range p.Data {
		f, err := parseFieldElement(word)
		if err != nil {
			return nil, fmt.Errorf("data[%d]: %w", i, err)
		}
		data[i] = f
	}

	return &StrippedProgram{
		Data:     data,
		Builtins: p.Builtins,
		Main:     *entry.PC,
	}, nil
}

// Hash computes the program hash chain of the stripped program with the given
// bootloader version.
func (p *StrippedProgram) Hash(bootloader uint64) (*felt.Felt, error) {
	chain := make([]*felt.Felt, 0, 4+len(p.Builtins)+len(p.Data))
	chain = append(chain,
		nil, // length, filled below
		feltFromUint(bootloader),
		feltFromUint(p.Main),
		feltFromUint(uint64(len(p.Builtins))),
	)
	for _, b := range p.Builtins {
		f, err := shortString(b)
		if err != nil {
			return nil, err
		}
		chain = append(chain, f)
	}
	chain = append(chain, p.Data...)
	chain[0] = feltFromUint(uint64(len(chain) - 1))

	return hashChain(chain), nil
}

// hashChain folds elems from the right: h(e0, h(e1, ... h(en-1, en))).
func hashChain(elems []*felt.Felt) *felt.Felt {
	acc := elems[len(elems)-1]
	for i := len(elems) - 2; i >= 0; i-- {
		acc = crypto.Pedersen(elems[i], acc)
	}
	return acc
}

func canonicalizeZero(raw []byte) (*Canonical, error) {
	stripped, err := Strip(raw)
	if err != nil {
		return nil, err
	}

	h, err := stripped.Hash(bootloaderVersion)
	if err != nil {
		return nil, err
	}

	return &Canonical{
		Version:  VersionZero,
		Hash:     formatHash(h),
		Builtins: normalizeBuiltins(stripped.Builtins),
	}, nil
}

func checkPrime(prime string) error {
	v, ok := parseBigInt(prime)
	if !ok {
		return fmt.Errorf("%w: invalid prime %q", ErrMalformedArtifact, prime)
	}
	if v.Cmp(Prime) != 0 {
		return fmt.Errorf("%w: prime %s differs from the Stark prime", ErrMalformedArtifact, prime)
	}
	return nil
}
