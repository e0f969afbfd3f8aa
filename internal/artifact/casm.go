package artifact

import (
	"bytes"
	"fmt"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/goccy/go-json"
)

const compiledClassVersion = "COMPILED_CLASS_V1"

type casmClass struct {
	Prime                  string             `json:"prime"`
	Bytecode               []string           `json:"bytecode"`
	BytecodeSegmentLengths json.RawMessage    `json:"bytecode_segment_lengths"`
	EntryPointsByType      casmEntryPointsMap `json:"entry_points_by_type"`
}

type casmEntryPointsMap struct {
	External    []casmEntryPoint `json:"EXTERNAL"`
	L1Handler   []casmEntryPoint `json:"L1_HANDLER"`
	Constructor []casmEntryPoint `json:"CONSTRUCTOR"`
}

type casmEntryPoint struct {
	Selector string   `json:"selector"`
	Offset   uint64   `json:"offset"`
	Builtins []string `json:"builtins"`
}

// segmentNode is either a leaf holding a segment length or a list of children.
type segmentNode struct {
	length   uint64
	children []segmentNode
	leaf     bool
}

func parseSegmentNode(raw json.RawMessage) (segmentNode, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return segmentNode{}, fmt.Errorf("%w: bytecode_segment_lengths: %v", ErrMalformedArtifact, err)
		}
		node := segmentNode{children: make([]segmentNode, 0, len(items))}
		for _, item := range items {
			child, err := parseSegmentNode(item)
			if err != nil {
				return segmentNode{}, err
			}
			node.children = append(node.children, child)
		}
		return node, nil
	}

	var length uint64
	if err := json.Unmarshal(raw, &length); err != nil {
		return segmentNode{}, fmt.Errorf("%w: bytecode_segment_lengths: %v", ErrMalformedArtifact, err)
	}
	return segmentNode{length: length, leaf: true}, nil
}

// CompiledClass is the hash-relevant content of a Cairo 2 CASM class.
type CompiledClass struct {
	Bytecode    []*felt.Felt
	segments    *segmentNode
	External    []EntryPoint
	L1Handler   []EntryPoint
	Constructor []EntryPoint
}

type EntryPoint struct {
	Selector *felt.Felt
	Offset   uint64
	Builtins []string
}

// ParseCompiledClass decodes a CASM class document.
func ParseCompiledClass(raw []byte) (*CompiledClass, error) {
	var c casmClass
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
	}

	if err := checkPrime(c.Prime); err != nil {
		return nil, err
	}

	class := &CompiledClass{Bytecode: make([]*felt.Felt, len(c.Bytecode))}
	for i, word := range c.Bytecode {
		f, err := parseFieldElement(word)
		if err != nil {
			return nil, fmt.Errorf("bytecode[%d]: %w", i, err)
		}
		class.Bytecode[i] = f
	}

	if trimmed := bytes.TrimSpace(c.BytecodeSegmentLengths); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		node, err := parseSegmentNode(trimmed)
		if err != nil {
			return nil, err
		}
		class.segments = &node
	}

	var err error
	if class.External, err = convertEntryPoints(c.EntryPointsByType.External); err != nil {
		return nil, err
	}
	if class.L1Handler, err = convertEntryPoints(c.EntryPointsByType.L1Handler); err != nil {
		return nil, err
	}
	if class.Constructor, err = convertEntryPoints(c.EntryPointsByType.Constructor); err != nil {
		return nil, err
	}

	return class, nil
}

func convertEntryPoints(eps []casmEntryPoint) ([]EntryPoint, error) {
	out := make([]EntryPoint, len(eps))
	for i, ep := range eps {
		selector, err := parseFieldElement(ep.Selector)
		if err != nil {
			return nil, fmt.Errorf("entry point selector: %w", err)
		}
		out[i] = EntryPoint{Selector: selector, Offset: ep.Offset, Builtins: ep.Builtins}
	}
	return out, nil
}

// Hash computes the compiled class hash.
func (c *CompiledClass) Hash() (*felt.Felt, error) {
	version, err := shortString(compiledClassVersion)
	if err != nil {
		return nil, err
	}

	external, err := entryPointsHash(c.External)
	if err != nil {
		return nil, err
	}
	l1Handler, err := entryPointsHash(c.L1Handler)
	if err != nil {
		return nil, err
	}
	constructor, err := entryPointsHash(c.Constructor)
	if err != nil {
		return nil, err
	}

	bytecode, err := c.bytecodeHash()
	if err != nil {
		return nil, err
	}

	return crypto.PoseidonArray(version, external, l1Handler, constructor, bytecode), nil
}

// Builtins returns the union of builtins used by the external entry points.
func (c *CompiledClass) Builtins() []string {
	var all []string
	for _, ep := range c.External {
		all = append(all, ep.Builtins...)
	}
	return normalizeBuiltins(all)
}

func entryPointsHash(eps []EntryPoint) (*felt.Felt, error) {
	elems := make([]*felt.Felt, 0, 3*len(eps))
	for _, ep := range eps {
		builtins := make([]*felt.Felt, len(ep.Builtins))
		for i, b := range ep.Builtins {
			f, err := shortString(b)
			if err != nil {
				return nil, err
			}
			builtins[i] = f
		}
		elems = append(elems, ep.Selector, feltFromUint(ep.Offset), crypto.PoseidonArray(builtins...))
	}
	return crypto.PoseidonArray(elems...), nil
}

func (c *CompiledClass) bytecodeHash() (*felt.Felt, error) {
	if c.segments == nil {
		return crypto.PoseidonArray(c.Bytecode...), nil
	}

	rest, h, err := segmentHash(c.Bytecode, *c.segments)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: bytecode segment lengths leave %d words unhashed", ErrHashComputation, len(rest))
	}
	return h, nil
}

// segmentHash hashes the segment tree rooted at node over the front of
// bytecode and returns the words that were not consumed.
func segmentHash(bytecode []*felt.Felt, node segmentNode) ([]*felt.Felt, *felt.Felt, error) {
	if node.leaf {
		if node.length > uint64(len(bytecode)) {
			return nil, nil, fmt.Errorf("%w: bytecode segment of length %d exceeds the remaining %d words",
				ErrHashComputation, node.length, len(bytecode))
		}
		return bytecode[node.length:], crypto.PoseidonArray(bytecode[:node.length]...), nil
	}

	elems := make([]*felt.Felt, 0, 2*len(node.children))
	for _, child := range node.children {
		before := len(bytecode)
		var h *felt.Felt
		var err error
		bytecode, h, err = segmentHash(bytecode, child)
		if err != nil {
			return nil, nil, err
		}
		elems = append(elems, feltFromUint(uint64(before-len(bytecode))), h)
	}

	h := crypto.PoseidonArray(elems...)
	return bytecode, new(felt.Felt).Add(h, feltFromUint(1)), nil
}

func canonicalizeTwo(raw []byte) (*Canonical, error) {
	class, err := ParseCompiledClass(raw)
	if err != nil {
		return nil, err
	}

	h, err := class.Hash()
	if err != nil {
		return nil, err
	}

	return &Canonical{
		Version:  VersionTwo,
		Hash:     formatHash(h),
		Builtins: class.Builtins(),
	}, nil
}
