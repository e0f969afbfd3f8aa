package artifact

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
)

// Prime is the order of the Stark field, 2^251 + 17*2^192 + 1.
var Prime, _ = new(big.Int).SetString("800000000000011000000000000000000000000000000000000000000000001", 16)

// parseFieldElement parses a 0x-prefixed hex or decimal string. Syntax errors
// wrap ErrMalformedArtifact and values outside the field wrap ErrHashComputation.
func parseFieldElement(s string) (*felt.Felt, error) {
	v, ok := parseBigInt(s)
	if !ok {
		return nil, fmt.Errorf("%w: invalid field element %q", ErrMalformedArtifact, s)
	}
	return feltFromBig(v)
}

func parseBigInt(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if hex, found := strings.CutPrefix(s, "0x"); found {
		if hex == "" {
			return nil, false
		}
		return new(big.Int).SetString(hex, 16)
	}
	if s == "" {
		return nil, false
	}
	return new(big.Int).SetString(s, 10)
}

func feltFromBig(v *big.Int) (*felt.Felt, error) {
	if v.Sign() < 0 || v.Cmp(Prime) >= 0 {
		return nil, fmt.Errorf("%w: value 0x%s is out of the field range", ErrHashComputation, v.Text(16))
	}
	return new(felt.Felt).SetBytes(v.Bytes()), nil
}

func feltFromUint(v uint64) *felt.Felt {
	return new(felt.Felt).SetUint64(v)
}

// shortString encodes an ASCII string of at most 31 bytes as a field element.
func shortString(s string) (*felt.Felt, error) {
	if len(s) > 31 {
		return nil, fmt.Errorf("%w: short string %q is longer than 31 bytes", ErrHashComputation, s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return nil, fmt.Errorf("%w: short string %q is not ASCII", ErrHashComputation, s)
		}
	}
	return new(felt.Felt).SetBytes([]byte(s)), nil
}

// formatHash renders a field element as lowercase hex with a 0x prefix and no
// leading zeros.
func formatHash(f *felt.Felt) string {
	b := f.Bytes()
	return "0x" + new(big.Int).SetBytes(b[:]).Text(16)
}
