package hashlib

import (
	"os"
	"sync"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
)

// MaxMemoryEnv overrides the process-wide memory budget for all tables. The
// value uses the human byte-count syntax of docker/go-units, e.g. "256M" or
// "2G". A malformed value is logged once and the default is used.
const MaxMemoryEnv = "SILK_HASH_MAXMEM"

const (
	// maxBlockBytes is the byte ceiling for a single block allocation.
	maxBlockBytes = 1 << 31

	// defaultMaxMemory is the total budget when SILK_HASH_MAXMEM is unset.
	defaultMaxMemory = 3 * maxBlockBytes

	// rehashDoubleLimit bounds the extra doubling applied to a rehash
	// target capacity.
	rehashDoubleLimit = 1 << 28
)

// GrowthPolicy selects how secondary blocks are sized relative to the
// primary block until rehashTrigger blocks exist.
type GrowthPolicy struct {
	kind  growthKind
	shift uint
}

type growthKind uint8

const (
	growSplitHalfQuarter growthKind = iota
	growHalveEach
	growQuarterThenHalve
	growQuarterEighth
	growUniform
	growShift
)

var (
	// PolicySplitHalfQuarter is the default: the first secondary is half
	// the primary, all later ones a quarter of it.
	PolicySplitHalfQuarter = GrowthPolicy{kind: growSplitHalfQuarter}

	// PolicyHalveEach halves each secondary relative to the previous
	// block, bottoming out at MinBlockEntries.
	PolicyHalveEach = GrowthPolicy{kind: growHalveEach}

	// PolicyQuarterThenHalve sizes the first secondary at a quarter of
	// the primary; later ones halve the previous block.
	PolicyQuarterThenHalve = GrowthPolicy{kind: growQuarterThenHalve}

	// PolicyQuarterEighth sizes the first secondary at a quarter of the
	// primary and all later ones at an eighth of it.
	PolicyQuarterEighth = GrowthPolicy{kind: growQuarterEighth}

	// PolicyUniform sizes every secondary like the primary.
	PolicyUniform = GrowthPolicy{kind: growUniform}
)

// PolicyShift sizes every secondary at primary >> k.
func PolicyShift(k uint) GrowthPolicy {
	return GrowthPolicy{kind: growShift, shift: k}
}

// nextSize returns the raw capacity of the block that would follow caps,
// before any flooring at MinBlockEntries. Once trigger blocks exist the last
// capacity repeats.
func (p GrowthPolicy) nextSize(caps []int, trigger int) int {
	n := len(caps)
	if n >= trigger {
		return caps[n-1]
	}

	primary := caps[0]

	switch p.kind {
	case growHalveEach:
		return caps[n-1] / 2
	case growQuarterThenHalve:
		if n == 1 {
			return primary / 4
		}

		return caps[n-1] / 2
	case growSplitHalfQuarter:
		if n == 1 {
			return primary / 2
		}

		return primary / 4
	case growQuarterEighth:
		if n == 1 {
			return primary / 4
		}

		return primary / 8
	case growUniform:
		return primary
	case growShift:
		return primary >> p.shift
	}

	return primary
}

// estimateTotal projects the total entry count across MaxBlocks blocks for
// a hypothetical primary capacity, by simulating the append sequence the
// policy would produce.
func (p GrowthPolicy) estimateTotal(primary, trigger int) int64 {
	caps := make([]int, 1, MaxBlocks)
	caps[0] = primary

	total := int64(primary)

	for len(caps) < MaxBlocks {
		next := p.nextSize(caps, trigger)
		if next < MinBlockEntries {
			next = MinBlockEntries
		}

		caps = append(caps, next)
		total += int64(next)
	}

	return total
}

// primaryCapFor inverts estimateTotal: the largest power-of-two primary
// capacity whose projected table still fits the byte budget, floored at
// MinBlockEntries and bounded by the per-block byte ceiling.
func primaryCapFor(budget int64, entryLen, trigger int, p GrowthPolicy) int {
	c := MinBlockEntries

	for {
		next := c * 2
		if int64(next)*int64(entryLen) > maxBlockBytes {
			return c
		}

		if p.estimateTotal(next, trigger)*int64(entryLen) > budget {
			return c
		}

		c = next
	}
}

// initialCapacity converts the caller's estimated entry count into the
// starting primary capacity: scale by the load factor, round up to a power
// of two, clamp to [MinBlockEntries, primaryCap].
func initialCapacity(estimated uint64, loadFactor uint8, primaryCap int) int {
	scaled := estimated << 8 / uint64(loadFactor)
	if scaled >= uint64(primaryCap) {
		return primaryCap
	}

	c := nextPow2(int(scaled))
	if c < MinBlockEntries {
		c = MinBlockEntries
	}

	if c > primaryCap {
		c = primaryCap
	}

	return c
}

var (
	budgetOnce  sync.Once
	budgetBytes int64
)

// globalMemoryBudget reads SILK_HASH_MAXMEM once per process. The parse
// result is cached so a warning about a malformed value prints only once.
func globalMemoryBudget() int64 {
	budgetOnce.Do(func() {
		budgetBytes = defaultMaxMemory

		raw := os.Getenv(MaxMemoryEnv)
		if raw == "" {
			return
		}

		n, err := parseMemoryBudget(raw)
		if err != nil {
			logrus.WithField("var", MaxMemoryEnv).WithField("value", raw).
				Warn("ignoring unparseable memory limit")

			return
		}

		budgetBytes = n
	})

	return budgetBytes
}

// parseMemoryBudget parses a human byte count such as "256M" or "2G".
func parseMemoryBudget(raw string) (int64, error) {
	n, err := units.RAMInBytes(raw)
	if err != nil {
		return 0, err
	}

	if n <= 0 {
		return 0, ErrBadArgument
	}

	return n, nil
}
