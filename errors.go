package hashlib

import "errors"

var (
	// ErrOutOfMemory is returned when a block allocation fails or would
	// exceed the configured memory budget.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrNoMoreBlocks is returned when the table already holds MaxBlocks
	// blocks and the last one is full.
	ErrNoMoreBlocks = errors.New("no more blocks")

	// ErrSortedTable is returned when a mutating operation is attempted on
	// a table that has been sorted.
	ErrSortedTable = errors.New("table is sorted")

	// ErrBadArgument is returned for invalid creation parameters or
	// mis-sized keys.
	ErrBadArgument = errors.New("bad argument")

	// ErrInternal indicates a broken table invariant, such as finding a
	// supposedly absent key while moving entries during a rehash.
	ErrInternal = errors.New("internal error")
)
