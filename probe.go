package hashlib

import "bytes"

// probe runs the double-hashed search for key within a single block. It
// returns the slot holding the key and found=true, or the first empty slot
// on the probe chain and found=false.
//
// The stride is forced odd: the capacity is a power of two, so any odd
// stride is coprime to it and visits every slot exactly once. Together with
// loadLimit < capacity this guarantees termination.
func (t *Table) probe(b *block, key []byte) (idx int, found bool) {
	h := probeValue(t.hash, key)
	step := h | 1
	mask := uint64(b.capacity - 1)

	for {
		idx = int(h & mask)

		if b.isEmpty(idx, t.sentinel) {
			return idx, false
		}

		if bytes.Equal(b.key(idx), key) {
			return idx, true
		}

		h += step
	}
}
