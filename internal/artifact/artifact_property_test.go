package artifact

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func programDoc(words []uint64, pc uint8) []byte {
	data := make([]string, len(words))
	for i, w := range words {
		data[i] = fmt.Sprintf("%q", fmt.Sprintf("0x%x", w))
	}
	return []byte(fmt.Sprintf(`{
		"compiler_version": "0.12.0",
		"prime": "0x800000000000011000000000000000000000000000000000000000000000001",
		"builtins": ["range_check"],
		"data": [%s],
		"identifiers": {"__main__.main": {"pc": %d, "type": "function"}}
	}`, strings.Join(data, ","), pc))
}

func classDoc(words []uint64) []byte {
	data := make([]string, len(words))
	for i, w := range words {
		data[i] = fmt.Sprintf("%q", fmt.Sprintf("0x%x", w))
	}
	return []byte(fmt.Sprintf(`{
		"compiler_version": "2.4.0",
		"prime": "0x800000000000011000000000000000000000000000000000000000000000001",
		"bytecode": [%s],
		"entry_points_by_type": {
			"EXTERNAL": [{"selector": "0x1", "offset": 0, "builtins": ["pedersen"]}],
			"L1_HANDLER": [],
			"CONSTRUCTOR": []
		}
	}`, strings.Join(data, ",")))
}

func TestCanonicalizeDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("cairo zero hash is a pure function of the bytes", prop.ForAll(
		func(words []uint64, pc uint8) bool {
			raw := programDoc(words, pc)
			a, errA := Inspect(raw)
			b, errB := Inspect(raw)
			if errA != nil || errB != nil {
				return false
			}
			return a.Hash == b.Hash && strings.Join(a.Builtins, ",") == strings.Join(b.Builtins, ",")
		},
		gen.SliceOf(gen.UInt64()),
		gen.UInt8(),
	))

	properties.Property("compiled class hash is a pure function of the bytes", prop.ForAll(
		func(words []uint64) bool {
			raw := classDoc(words)
			a, errA := Inspect(raw)
			b, errB := Inspect(raw)
			if errA != nil || errB != nil {
				return false
			}
			return a.Hash == b.Hash && len(a.Builtins) == 1 && a.Builtins[0] == "pedersen"
		},
		gen.SliceOf(gen.UInt64()),
	))

	properties.Property("changing a cairo zero word changes the hash", prop.ForAll(
		func(words []uint64) bool {
			if len(words) == 0 {
				return true
			}
			changed := append([]uint64(nil), words...)
			changed[0]++
			a, errA := Inspect(programDoc(words, 0))
			b, errB := Inspect(programDoc(changed, 0))
			return errA == nil && errB == nil && a.Hash != b.Hash
		},
		gen.SliceOf(gen.UInt64()),
	))

	properties.TestingRun(t)
}
