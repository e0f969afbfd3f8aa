package utils

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ETag returns a strong entity tag for b.
func ETag(b []byte) string {
	return `"` + strconv.FormatUint(xxhash.Sum64(b), 16) + `"`
}
