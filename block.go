package hashlib

import (
	"bytes"
	"fmt"
	"math/bits"
)

// block is one power-of-two-sized slot array. Entries are packed back to
// back in storage: key bytes first, value bytes after. A slot whose value
// region equals the table's sentinel is empty; its key bytes are garbage.
type block struct {
	storage   []byte
	capacity  int // number of slots, power of two >= MinBlockEntries
	count     int // occupied slots
	loadLimit int // capacity * loadFactor >> 8
	keyLen    int
	entryLen  int
}

// newBlock allocates and initialises a block. Every slot's value region is
// set to the sentinel so the whole block starts empty.
func (t *Table) newBlock(capacity int) (*block, error) {
	if capacity < MinBlockEntries || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("%w: block capacity %d", ErrInternal, capacity)
	}

	size := capacity * t.entryLen
	if size/t.entryLen != capacity || size > maxBlockBytes {
		return nil, fmt.Errorf("%w: block of %d entries", ErrOutOfMemory, capacity)
	}

	storage, err := t.alloc(size)
	if err != nil {
		return nil, fmt.Errorf("%w: block of %d bytes", ErrOutOfMemory, size)
	}

	b := &block{
		storage:   storage,
		capacity:  capacity,
		loadLimit: capacity * int(t.loadFactor) >> 8,
		keyLen:    t.keyLen,
		entryLen:  t.entryLen,
	}
	b.fillSentinel(t)

	return b, nil
}

// fillSentinel writes the empty marker into every slot. When all sentinel
// bytes are identical the whole buffer is filled in one pass; a fresh
// allocation is already zeroed, so the all-zero default costs nothing.
func (b *block) fillSentinel(t *Table) {
	if t.memsetSentinel {
		if s := t.sentinel[0]; s != 0 {
			for i := range b.storage {
				b.storage[i] = s
			}
		}

		return
	}

	for i := 0; i < b.capacity; i++ {
		copy(b.value(i), t.sentinel)
	}
}

// isFull reports whether the block has reached its load limit.
func (b *block) isFull() bool {
	return b.count >= b.loadLimit
}

// key returns the key bytes of slot i.
func (b *block) key(i int) []byte {
	off := i * b.entryLen

	return b.storage[off : off+b.keyLen : off+b.keyLen]
}

// value returns the value bytes of slot i.
func (b *block) value(i int) []byte {
	off := i*b.entryLen + b.keyLen
	end := off + b.entryLen - b.keyLen

	return b.storage[off:end:end]
}

// isEmpty reports whether slot i's value region equals the sentinel.
func (b *block) isEmpty(i int, sentinel []byte) bool {
	return bytes.Equal(b.value(i), sentinel)
}

// compact moves all occupied slots into [0, count) with a two-pointer sweep:
// j walks forward to the first empty slot, i walks backward to the last
// occupied one, and entries are swapped until the pointers cross. Repeating
// the sweep on an already compacted block is a no-op.
func (b *block) compact(sentinel []byte) {
	j := 0
	i := b.capacity - 1

	for {
		for j < b.capacity && !b.isEmpty(j, sentinel) {
			j++
		}

		for i >= 0 && b.isEmpty(i, sentinel) {
			i--
		}

		if i <= j {
			return
		}

		src := b.storage[i*b.entryLen : (i+1)*b.entryLen]
		dst := b.storage[j*b.entryLen : (j+1)*b.entryLen]
		copy(dst, src)
		copy(b.value(i), sentinel)
		j++
	}
}

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}

	return 1 << (64 - bits.LeadingZeros64(uint64(n-1)))
}
