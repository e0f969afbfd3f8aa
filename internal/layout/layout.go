package layout

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Builtin names understood by the Cairo VM. Names outside this set are
// ignored when resolving a layout.
const (
	BuiltinOutput       = "output"
	BuiltinPedersen     = "pedersen"
	BuiltinRangeCheck   = "range_check"
	BuiltinECDSA        = "ecdsa"
	BuiltinBitwise      = "bitwise"
	BuiltinECOp         = "ec_op"
	BuiltinKeccak       = "keccak"
	BuiltinPoseidon     = "poseidon"
	BuiltinRangeCheck96 = "range_check96"
	BuiltinAddMod       = "add_mod"
	BuiltinMulMod       = "mul_mod"
	BuiltinSegmentArena = "segment_arena"
)

var knownBuiltins = map[string]struct{}{
	BuiltinOutput:       {},
	BuiltinPedersen:     {},
	BuiltinRangeCheck:   {},
	BuiltinECDSA:        {},
	BuiltinBitwise:      {},
	BuiltinECOp:         {},
	BuiltinKeccak:       {},
	BuiltinPoseidon:     {},
	BuiltinRangeCheck96: {},
	BuiltinAddMod:       {},
	BuiltinMulMod:       {},
	BuiltinSegmentArena: {},
}

// IsKnownBuiltin reports whether name is a builtin the Cairo VM knows about.
func IsKnownBuiltin(name string) bool {
	_, ok := knownBuiltins[name]
	return ok
}

var (
	ErrNoMaximalLayout = errors.New("no layout covers the builtins of every other layout")
	ErrDuplicateLayout = errors.New("duplicate layout name")
	ErrInvalidLayout   = errors.New("invalid layout")
)

// Spec describes one execution layout: the builtins it can serve and its
// cost in trace columns.
type Spec struct {
	Name     string
	Builtins []string
	Cost     uint32
}

// Supports reports whether the layout provides every builtin in requirement.
func (s Spec) Supports(requirement []string) bool {
	for _, b := range requirement {
		if !slices.Contains(s.Builtins, b) {
			return false
		}
	}
	return true
}

// Catalog is an immutable set of layouts. Build one with NewCatalog at
// startup and share it by pointer.
type Catalog struct {
	specs   []Spec
	byName  map[string]int
	maximal int
}

// NewCatalog validates specs and returns a catalog ordered by name. At least
// one spec must support the union of all builtins in the catalog; that spec
// is the fallback for requirements nothing else covers.
func NewCatalog(specs ...Spec) (*Catalog, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: empty catalog", ErrInvalidLayout)
	}

	c := &Catalog{
		specs:   make([]Spec, 0, len(specs)),
		byName:  make(map[string]int, len(specs)),
		maximal: -1,
	}

	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: layout without a name", ErrInvalidLayout)
		}
		if s.Cost == 0 {
			return nil, fmt.Errorf("%w: layout %s has zero cost", ErrInvalidLayout, s.Name)
		}
		if _, exists := c.byName[s.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLayout, s.Name)
		}
		c.byName[s.Name] = -1
		c.specs = append(c.specs, Spec{Name: s.Name, Builtins: normalize(s.Builtins), Cost: s.Cost})
	}

	sort.Slice(c.specs, func(i, j int) bool { return c.specs[i].Name < c.specs[j].Name })

	var union []string
	for i, s := range c.specs {
		c.byName[s.Name] = i
		union = append(union, s.Builtins...)
	}
	union = normalize(union)

	for i, s := range c.specs {
		if !s.Supports(union) {
			continue
		}
		// Prefer the cheapest maximal layout if several qualify.
		if c.maximal < 0 || s.Cost < c.specs[c.maximal].Cost {
			c.maximal = i
		}
	}
	if c.maximal < 0 {
		return nil, ErrNoMaximalLayout
	}

	return c, nil
}

// DefaultCatalog returns the layouts used to run programs, see
// starkware/cairo/lang/instances.py.
func DefaultCatalog() (*Catalog, error) {
	return NewCatalog(
		Spec{
			Name: "starknet_with_keccak",
			Cost: 15,
			Builtins: []string{
				BuiltinOutput, BuiltinPedersen, BuiltinRangeCheck, BuiltinECDSA,
				BuiltinBitwise, BuiltinECOp, BuiltinKeccak, BuiltinPoseidon,
			},
		},
		Spec{
			Name: "starknet",
			Cost: 10,
			Builtins: []string{
				BuiltinOutput, BuiltinPedersen, BuiltinRangeCheck, BuiltinECDSA,
				BuiltinBitwise, BuiltinECOp, BuiltinPoseidon,
			},
		},
		Spec{
			Name:     "recursive",
			Cost:     10,
			Builtins: []string{BuiltinOutput, BuiltinPedersen, BuiltinRangeCheck, BuiltinBitwise},
		},
		Spec{
			Name:     "recursive_with_poseidon",
			Cost:     8,
			Builtins: []string{BuiltinOutput, BuiltinPedersen, BuiltinRangeCheck, BuiltinBitwise, BuiltinPoseidon},
		},
	)
}

// Specs returns a copy of every layout, ordered by name.
func (c *Catalog) Specs() []Spec {
	out := make([]Spec, len(c.specs))
	for i, s := range c.specs {
		out[i] = s.clone()
	}
	return out
}

// Lookup returns the layout with the given name.
func (c *Catalog) Lookup(name string) (Spec, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Spec{}, false
	}
	return c.specs[i].clone(), true
}

// Maximal returns the fallback layout.
func (c *Catalog) Maximal() Spec {
	return c.specs[c.maximal].clone()
}

// Resolve picks the cheapest layout supporting every known builtin in
// requirement. Ties go to the lexicographically smallest name. When no layout
// qualifies the maximal layout is returned.
func (c *Catalog) Resolve(requirement []string) Spec {
	required := make([]string, 0, len(requirement))
	for _, b := range requirement {
		if IsKnownBuiltin(b) {
			required = append(required, b)
		}
	}

	best := -1
	for i, s := range c.specs {
		if !s.Supports(required) {
			continue
		}
		// specs are sorted by name, so strict comparison keeps the first name on ties
		if best < 0 || s.Cost < c.specs[best].Cost {
			best = i
		}
	}
	if best < 0 {
		return c.Maximal()
	}
	return c.specs[best].clone()
}

func (s Spec) clone() Spec {
	s.Builtins = slices.Clone(s.Builtins)
	return s
}

func normalize(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}
