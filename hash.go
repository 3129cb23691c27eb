package hashlib

import (
	"github.com/cespare/xxhash/v2"
)

// Domain-separation seeds for the primary index and the secondary stride.
const (
	seedPrimary   uint32 = 0x53694C4B
	seedSecondary uint32 = 0x4361726E
)

// Hasher produces two 32-bit hash words for a key, one per seed. The first
// word becomes the low half of the probe value and the second the high half,
// so the two must be decorrelated for double hashing to work.
type Hasher func(key []byte, seed1, seed2 uint32) (uint32, uint32)

// DefaultHasher hashes the key once with xxHash and derives the two seeded
// words with a bitwise mixer.
func DefaultHasher(key []byte, seed1, seed2 uint32) (uint32, uint32) {
	h := xxhash.Sum64(key)

	return uint32(mix64(h ^ uint64(seed1))), uint32(mix64(h ^ uint64(seed2)))
}

// mix64 is the finalizer used to spread a 64-bit hash across both output
// words. 0x9e3779b97f4a7c15 is the golden ratio constant used in many hashers.
func mix64(h uint64) uint64 {
	h ^= h >> 33
	h *= 0x9e3779b97f4a7c15
	h ^= h >> 33

	return h
}

// probeValue combines the two seeded words into the 64-bit value driving the
// probe sequence, first word low.
func probeValue(hash Hasher, key []byte) uint64 {
	lo, hi := hash(key, seedPrimary, seedSecondary)

	return uint64(lo) | uint64(hi)<<32
}
