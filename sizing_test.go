package hashlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrowthPolicy_NextSize(t *testing.T) {
	cases := []struct {
		name   string
		policy GrowthPolicy
		caps   []int
		want   int
	}{
		{"default first half", PolicySplitHalfQuarter, []int{1024}, 512},
		{"default later quarter", PolicySplitHalfQuarter, []int{1024, 512}, 256},
		{"default third quarter", PolicySplitHalfQuarter, []int{1024, 512, 256}, 256},
		{"halve each", PolicyHalveEach, []int{1024}, 512},
		{"halve each again", PolicyHalveEach, []int{1024, 512}, 256},
		{"quarter then halve", PolicyQuarterThenHalve, []int{1024}, 256},
		{"quarter then halve again", PolicyQuarterThenHalve, []int{1024, 256}, 128},
		{"quarter eighth first", PolicyQuarterEighth, []int{1024}, 256},
		{"quarter eighth later", PolicyQuarterEighth, []int{1024, 256}, 128},
		{"uniform", PolicyUniform, []int{1024, 1024}, 1024},
		{"shift", PolicyShift(3), []int{2048}, 256},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.policy.nextSize(tc.caps, DefaultRehashTrigger))
		})
	}
}

func TestGrowthPolicy_NextSizeRepeatsPastTrigger(t *testing.T) {
	caps := []int{1024, 512, 256, 256}

	// Four blocks exist, so every policy repeats the last capacity.
	for _, p := range []GrowthPolicy{
		PolicySplitHalfQuarter, PolicyHalveEach, PolicyQuarterThenHalve,
		PolicyQuarterEighth, PolicyUniform, PolicyShift(2),
	} {
		assert.Equal(t, 256, p.nextSize(caps, DefaultRehashTrigger))
	}
}

func TestGrowthPolicy_EstimateTotal(t *testing.T) {
	// Default policy over eight blocks: C + C/2 + 6*(C/4) = 3C.
	assert.Equal(t, int64(3072), PolicySplitHalfQuarter.estimateTotal(1024, DefaultRehashTrigger))

	// Uniform: 8C.
	assert.Equal(t, int64(8192), PolicyUniform.estimateTotal(1024, DefaultRehashTrigger))

	// Halving bottoms out at the minimum block size.
	// 1024 + 512 + 256 + 256*5.
	assert.Equal(t, int64(3072), PolicyHalveEach.estimateTotal(1024, DefaultRehashTrigger))
}

func TestPrimaryCapFor(t *testing.T) {
	entryLen := 12

	// A budget of exactly the projected 512-primary table admits 512 but
	// not 1024.
	budget := PolicySplitHalfQuarter.estimateTotal(512, DefaultRehashTrigger) * int64(entryLen)
	assert.Equal(t, 512, primaryCapFor(budget, entryLen, DefaultRehashTrigger, PolicySplitHalfQuarter))

	// One byte less drops the cap a power of two.
	assert.Equal(t, 256, primaryCapFor(budget-1, entryLen, DefaultRehashTrigger, PolicySplitHalfQuarter))

	// The cap never goes below the minimum block size.
	assert.Equal(t, 256, primaryCapFor(1, entryLen, DefaultRehashTrigger, PolicySplitHalfQuarter))
}

func TestInitialCapacity(t *testing.T) {
	// 200 entries at the default load factor scale to 276 slots, which
	// round up to 512.
	assert.Equal(t, 512, initialCapacity(200, DefaultLoadFactor, 1<<20))

	// Small estimates floor at the minimum.
	assert.Equal(t, 256, initialCapacity(0, DefaultLoadFactor, 1<<20))
	assert.Equal(t, 256, initialCapacity(10, DefaultLoadFactor, 1<<20))

	// Large estimates clamp to the primary cap.
	assert.Equal(t, 1024, initialCapacity(1<<30, DefaultLoadFactor, 1024))
}

func TestParseMemoryBudget(t *testing.T) {
	n, err := parseMemoryBudget("256M")
	require.NoError(t, err)
	assert.Equal(t, int64(256<<20), n)

	n, err = parseMemoryBudget("2G")
	require.NoError(t, err)
	assert.Equal(t, int64(2<<30), n)

	n, err = parseMemoryBudget("1024")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), n)

	_, err = parseMemoryBudget("lots")
	assert.Error(t, err)

	_, err = parseMemoryBudget("0")
	assert.Error(t, err)
}

func TestConfigMaxMemoryBoundsThePrimary(t *testing.T) {
	// A 12-byte entry with a budget for exactly one projected 512-primary
	// table caps the primary at 512, so a huge estimate still starts there.
	budget := PolicySplitHalfQuarter.estimateTotal(512, DefaultRehashTrigger) * 12

	table := newTestTable(t, Config{EstimatedCount: 1 << 20, MaxMemory: budget})
	assert.Equal(t, uint64(512), table.Buckets())
	assert.Equal(t, 512, table.primaryCap)
}
