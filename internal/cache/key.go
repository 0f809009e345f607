package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Pair is one (name, value) component of a cache key.
type Pair struct {
	Name  string
	Value string
}

// GenerateKey sorts parts by Name, joins them as "k1=v1&k2=v2&...", hashes the
// result with a fast 64-bit hash, and renders it left-padded as 32 lowercase hex
// digits (a 64-bit hash occupies the low 16 digits; the remaining 16 are zero
// padding, matching the 128-bit-wide key format every cache entry name uses).
// An empty part list yields the literal key "empty".
func GenerateKey(parts []Pair) string {
	if len(parts) == 0 {
		return "empty"
	}

	sorted := make([]Pair, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for i, p := range sorted {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}

	hash := xxhash.Sum64String(b.String())
	return fmt.Sprintf("%032x", hash)
}

// FastHash is the 64-bit content hash used to key OCR cache entries from raw
// image bytes and to decide probabilistic cleanup triggers.
func FastHash(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// ValidateKey reports whether key looks like a key GenerateKey could have
// produced: exactly 32 lowercase hex digits.
func ValidateKey(key string) bool {
	if len(key) != 32 {
		return false
	}
	for _, c := range key {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
