package store

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ContentHash returns the hex xxhash64 of a file's content. Files whose hash
// is unchanged are skipped on re-index.
func ContentHash(content []byte) string {
	return FormatHash(xxhash.Sum64(content))
}

// FormatHash renders a 64-bit hash as fixed-width hex.
func FormatHash(h uint64) string {
	s := strconv.FormatUint(h, 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}
