package utils

import (
	"strconv"

	"github.com/zeebo/xxh3"
)

// StableHash produces a deterministic, compact identifier from a set of
// string parts, used for both mailbox ids (account_id, name) and envelope
// ids (account_id, message_id). Stands in for the original's
// murmur3-x64-128-truncated-to-53-bits scheme: xxh3 is a real pack
// dependency with the same "fast, stable, non-cryptographic" profile.
func StableHash(parts ...string) uint64 {
	h := xxh3.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.WriteString("\x00")
	}
	return h.Sum64()
}

// StableHashHex renders StableHash as a lowercase hex string without zero
// padding (at most 16 characters), suitable as a varchar primary key.
func StableHashHex(parts ...string) string {
	return strconv.FormatUint(StableHash(parts...), 16)
}

// Safe53 truncates a 64-bit hash to 53 bits so the value round-trips
// through a float64/JS-safe-integer boundary, matching the original's
// murmur3-x64-128-truncated-to-53-bits thread id contract.
func Safe53(h uint64) uint64 {
	return h & ((1 << 53) - 1)
}
