package layout

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var builtinNames = []interface{}{
	BuiltinOutput, BuiltinPedersen, BuiltinRangeCheck, BuiltinECDSA, BuiltinBitwise,
	BuiltinECOp, BuiltinKeccak, BuiltinPoseidon, BuiltinRangeCheck96, BuiltinSegmentArena,
}

func TestResolveProperties(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	requirement := gen.SliceOf(gen.OneConstOf(builtinNames...), reflect.TypeOf(""))

	properties.Property("chosen layout is the cheapest superset", prop.ForAll(
		func(req []string) bool {
			got := c.Resolve(req)

			var qualifying []Spec
			for _, s := range c.Specs() {
				if s.Supports(req) {
					qualifying = append(qualifying, s)
				}
			}
			if len(qualifying) == 0 {
				return got.Name == c.Maximal().Name
			}
			if !got.Supports(req) {
				return false
			}
			for _, s := range qualifying {
				if s.Cost < got.Cost {
					return false
				}
			}
			return true
		},
		requirement,
	))

	properties.Property("resolve is deterministic", prop.ForAll(
		func(req []string) bool {
			return c.Resolve(req).Name == c.Resolve(req).Name
		},
		requirement,
	))

	properties.TestingRun(t)
}
