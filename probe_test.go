package hashlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collidingHasher sends every key to the same slot so probes must walk the
// chain to separate them.
func collidingHasher(key []byte, s1, s2 uint32) (uint32, uint32) {
	return 0, 0
}

func TestProbe_CollisionChain(t *testing.T) {
	table := newTestTable(t, Config{Hash: collidingHasher})

	// With hash 0 the stride is forced to 1, so entries land in slots
	// 0, 1, 2 in insertion order.
	for n := uint32(0); n < 3; n++ {
		value, status, err := table.Insert(key4(n))
		require.NoError(t, err)
		require.Equal(t, Inserted, status)
		copy(value, value8(uint64(n)+1))
	}

	b := table.blocks[0]
	for i := 0; i < 3; i++ {
		assert.Equal(t, key4(uint32(i)), b.key(i))
	}

	for n := uint32(0); n < 3; n++ {
		value, found, err := table.Lookup(key4(n))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, value8(uint64(n)+1), value)
	}

	_, found, err := table.Lookup(key4(99))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProbe_FullColumnStaysCorrect(t *testing.T) {
	table := newTestTable(t, Config{Hash: collidingHasher})

	// Drive the block to its load limit on a single probe chain.
	for n := uint32(0); n < 185; n++ {
		value, status, err := table.Insert(key4(n))
		require.NoError(t, err)
		require.Equal(t, Inserted, status)
		copy(value, value8(uint64(n)+1))
	}

	for n := uint32(0); n < 185; n++ {
		value, found, err := table.Lookup(key4(n))
		require.NoError(t, err)
		require.True(t, found, "key %d missing", n)
		assert.Equal(t, value8(uint64(n)+1), value)
	}

	_, found, err := table.Lookup(key4(400))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProbe_OddStrideVisitsEverySlot(t *testing.T) {
	// An even hash value must still produce an odd stride; with stride
	// h|1 every slot of a power-of-two block is reachable.
	even := func(key []byte, s1, s2 uint32) (uint32, uint32) {
		return 0x10, 0
	}

	table := newTestTable(t, Config{Hash: even})

	for n := uint32(0); n < 185; n++ {
		value, status, err := table.Insert(key4(n))
		require.NoError(t, err)
		require.Equal(t, Inserted, status)
		copy(value, value8(uint64(n)+1))
	}

	for n := uint32(0); n < 185; n++ {
		value, found, err := table.Lookup(key4(n))
		require.NoError(t, err)
		require.True(t, found, "key %d unreachable", n)
		assert.Equal(t, value8(uint64(n)+1), value)
	}

	assert.Equal(t, uint64(185), table.Len())
}
