package hashlib

import "fmt"

// grow runs when an insert finds the last block full. It either appends a
// new block sized by the growth policy or collapses every live entry into a
// single larger block, whichever the planner picks.
func (t *Table) grow() error {
	if len(t.blocks) == MaxBlocks {
		return fmt.Errorf("insert: %w", ErrNoMoreBlocks)
	}

	caps := make([]int, len(t.blocks))
	for i, b := range t.blocks {
		caps[i] = b.capacity
	}

	next := t.policy.nextSize(caps, t.rehashTrigger)

	switch {
	case t.blocks[0].capacity >= t.primaryCap || t.rehashFailed:
		// The primary can grow no further, so rehashing buys nothing;
		// likewise once a rehash attempt has already failed.
		if next < MinBlockEntries {
			next = MinBlockEntries
		}

		return t.appendBlock(next)

	case len(t.blocks) >= t.rehashTrigger || next < MinBlockEntries:
		return t.rehash()

	default:
		return t.appendBlock(next)
	}
}

// appendBlock adds a new empty block of the given capacity.
func (t *Table) appendBlock(capacity int) error {
	b, err := t.newBlock(capacity)
	if err != nil {
		t.tracer("hashlib: append of %d-entry block failed: %v", capacity, err)

		return err
	}

	t.blocks = append(t.blocks, b)

	return nil
}

// rehash moves every live entry into one new block sized to hold the sum of
// all current capacities. An allocation failure is soft: the failure is
// recorded so future growth only appends, and a minimum-sized block is
// appended instead.
func (t *Table) rehash() error {
	if t.sorted {
		return fmt.Errorf("rehash: %w", ErrSortedTable)
	}

	total := 0
	for _, b := range t.blocks {
		total += b.capacity
	}

	if total >= t.primaryCap {
		return fmt.Errorf("rehash: table of %d buckets exceeds budget: %w", total, ErrOutOfMemory)
	}

	// The new block must exceed the combined capacity, and while there is
	// headroom it is doubled once more to delay the next growth decision.
	capacity := nextPow2(total + 1)
	if capacity <= t.primaryCap/2 && capacity < rehashDoubleLimit {
		capacity *= 2
	}

	if capacity < MinBlockEntries {
		capacity = MinBlockEntries
	}

	if capacity > t.primaryCap {
		capacity = t.primaryCap
	}

	nb, err := t.newBlock(capacity)
	if err != nil {
		t.rehashFailed = true
		t.tracer("hashlib: rehash to %d entries failed, appending instead: %v", capacity, err)

		return t.appendBlock(MinBlockEntries)
	}

	// Move entries newest block first. Every key is unique across blocks,
	// so the probe must land on an empty slot; anything else means the
	// hash is non-deterministic or a sentinel value was stored.
	for i := len(t.blocks) - 1; i >= 0; i-- {
		b := t.blocks[i]

		for slot := 0; slot < b.capacity; slot++ {
			if b.isEmpty(slot, t.sentinel) {
				continue
			}

			key := b.key(slot)

			idx, found := t.probe(nb, key)
			if found {
				return fmt.Errorf("rehash: key already present in new block: %w", ErrInternal)
			}

			copy(nb.key(idx), key)
			copy(nb.value(idx), b.value(slot))
			nb.count++
		}
	}

	t.blocks = []*block{nb}

	return nil
}
