package hashlib

import (
	"fmt"
	"iter"
	"sort"
)

// Iter walks all entries as (key, value) byte slices. On an unsorted table
// the order is unspecified. After SortBy the entries come out in comparator
// order, merged across blocks when more than one exists. The yielded slices
// alias block storage and are only valid until the next mutating call.
func (t *Table) Iter() iter.Seq2[[]byte, []byte] {
	if t.sorted && len(t.blocks) > 1 {
		return t.mergeIter()
	}

	return t.scanIter()
}

// scanIter yields every occupied slot block by block.
func (t *Table) scanIter() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		for _, b := range t.blocks {
			for i := 0; i < b.capacity; i++ {
				if b.isEmpty(i, t.sentinel) {
					continue
				}

				if !yield(b.key(i), b.value(i)) {
					return
				}
			}
		}
	}
}

// mergeIter merges the compacted, sorted blocks with one cursor per block.
// At most MaxBlocks cursors exist, so a linear minimum scan beats a heap.
// Ties go to the lower block index.
func (t *Table) mergeIter() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		cursors := make([]int, len(t.blocks))

		for {
			best := -1

			for bi, b := range t.blocks {
				if cursors[bi] >= b.count {
					continue
				}

				if best < 0 || t.cmp(b.key(cursors[bi]), t.blocks[best].key(cursors[best])) < 0 {
					best = bi
				}
			}

			if best < 0 {
				return
			}

			b := t.blocks[best]
			i := cursors[best]
			cursors[best]++

			if !yield(b.key(i), b.value(i)) {
				return
			}
		}
	}
}

// SortBy compacts every block and sorts its entries with cmp, which compares
// two keys and returns a negative, zero or positive result. Afterwards the
// table is read-only except for Iter, Len, Buckets and repeated SortBy calls
// with a different comparator.
func (t *Table) SortBy(cmp func(a, b []byte) int) error {
	if cmp == nil {
		return fmt.Errorf("sort: %w", ErrBadArgument)
	}

	for _, b := range t.blocks {
		b.compact(t.sentinel)
		sort.Sort(&blockSorter{b: b, cmp: cmp, tmp: make([]byte, b.entryLen)})
	}

	t.cmp = cmp
	t.sorted = true

	return nil
}

// blockSorter adapts a compacted block's occupied prefix to sort.Interface,
// swapping whole entries through a scratch buffer.
type blockSorter struct {
	b   *block
	cmp func(a, b []byte) int
	tmp []byte
}

func (s *blockSorter) Len() int { return s.b.count }

func (s *blockSorter) Less(i, j int) bool {
	return s.cmp(s.b.key(i), s.b.key(j)) < 0
}

func (s *blockSorter) Swap(i, j int) {
	ei := s.b.storage[i*s.b.entryLen : (i+1)*s.b.entryLen]
	ej := s.b.storage[j*s.b.entryLen : (j+1)*s.b.entryLen]
	copy(s.tmp, ei)
	copy(ei, ej)
	copy(ej, s.tmp)
}
