package hashlib

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Compile-time limits and defaults.
const (
	// MaxBlocks is the most blocks a table will ever hold.
	MaxBlocks = 8

	// MinBlockEntries is the smallest block capacity.
	MinBlockEntries = 256

	// MaxKeyLen and MaxValueLen bound the fixed widths chosen at creation.
	MaxKeyLen   = 255
	MaxValueLen = 255

	// DefaultLoadFactor is the load threshold numerator out of 256,
	// roughly 72.5%.
	DefaultLoadFactor = 185

	// DefaultRehashTrigger is the block count at which the planner prefers
	// a rehash over another append.
	DefaultRehashTrigger = 4
)

// Tracer receives diagnostic messages emitted on failure paths. It is not
// part of the table's contract.
type Tracer func(format string, args ...any)

// Config carries the creation parameters for a Table. Zero values select
// the documented defaults.
type Config struct {
	// KeyLen and ValueLen are the fixed widths in bytes, each 1..255.
	KeyLen   int
	ValueLen int

	// Sentinel is the value pattern that marks a slot empty. It must be
	// ValueLen bytes and must never be stored as a real value. Nil selects
	// all zeros.
	Sentinel []byte

	// EstimatedCount sizes the primary block.
	EstimatedCount uint64

	// LoadFactor is the per-block load threshold numerator out of 256.
	// Zero selects DefaultLoadFactor.
	LoadFactor uint8

	// Policy sizes secondary blocks. The zero value is
	// PolicySplitHalfQuarter.
	Policy GrowthPolicy

	// RehashTrigger is the block count at which the planner prefers a
	// rehash. Zero selects DefaultRehashTrigger.
	RehashTrigger int

	// Hash overrides the hash primitive, mainly for tests. Nil selects
	// DefaultHasher.
	Hash Hasher

	// Tracer overrides the diagnostic sink. Nil selects a logrus-backed
	// default.
	Tracer Tracer

	// MaxMemory overrides the process-wide byte budget read from
	// SILK_HASH_MAXMEM. Zero uses the process-wide value.
	MaxMemory int64
}

// Table maps fixed-width byte keys to fixed-width byte values across up to
// MaxBlocks open-addressed blocks.
//
// Value slices returned by Insert and Lookup alias block storage. Any call
// that can grow, rehash or sort the table invalidates them.
type Table struct {
	keyLen         int
	valueLen       int
	entryLen       int
	loadFactor     uint8
	sentinel       []byte
	memsetSentinel bool

	hash   Hasher
	tracer Tracer
	alloc  func(n int) ([]byte, error)

	policy        GrowthPolicy
	rehashTrigger int
	primaryCap    int

	blocks       []*block
	rehashFailed bool
	sorted       bool
	cmp          func(a, b []byte) int
}

// InsertStatus reports whether Insert created a new entry or found an
// existing one.
type InsertStatus int

const (
	// Inserted means the key was new; the caller must write a non-sentinel
	// value through the returned slice, or the slot will read as empty and
	// corrupt probe chains that collide with it.
	Inserted InsertStatus = iota

	// Duplicate means the key already existed; the returned slice is the
	// live value.
	Duplicate
)

func (s InsertStatus) String() string {
	switch s {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	}

	return fmt.Sprintf("InsertStatus(%d)", int(s))
}

// New creates a table for keyLen-byte keys and valueLen-byte values.
func New(cfg Config) (*Table, error) {
	if cfg.KeyLen < 1 || cfg.KeyLen > MaxKeyLen {
		return nil, fmt.Errorf("%w: key length %d", ErrBadArgument, cfg.KeyLen)
	}

	if cfg.ValueLen < 1 || cfg.ValueLen > MaxValueLen {
		return nil, fmt.Errorf("%w: value length %d", ErrBadArgument, cfg.ValueLen)
	}

	sentinel := make([]byte, cfg.ValueLen)
	if cfg.Sentinel != nil {
		if len(cfg.Sentinel) != cfg.ValueLen {
			return nil, fmt.Errorf("%w: sentinel length %d, want %d",
				ErrBadArgument, len(cfg.Sentinel), cfg.ValueLen)
		}

		copy(sentinel, cfg.Sentinel)
	}

	loadFactor := cfg.LoadFactor
	if loadFactor == 0 {
		loadFactor = DefaultLoadFactor
	}

	trigger := cfg.RehashTrigger
	if trigger == 0 {
		trigger = DefaultRehashTrigger
	}

	hash := cfg.Hash
	if hash == nil {
		hash = DefaultHasher
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = logrus.StandardLogger().Debugf
	}

	budget := cfg.MaxMemory
	if budget == 0 {
		budget = globalMemoryBudget()
	}

	t := &Table{
		keyLen:         cfg.KeyLen,
		valueLen:       cfg.ValueLen,
		entryLen:       cfg.KeyLen + cfg.ValueLen,
		loadFactor:     loadFactor,
		sentinel:       sentinel,
		memsetSentinel: uniformBytes(sentinel),
		hash:           hash,
		tracer:         tracer,
		alloc:          defaultAlloc,
		policy:         cfg.Policy,
		rehashTrigger:  trigger,
	}
	t.primaryCap = primaryCapFor(budget, t.entryLen, trigger, t.policy)

	capacity := initialCapacity(cfg.EstimatedCount, loadFactor, t.primaryCap)

	// The primary allocation may fall back by halving until the minimum.
	for {
		b, err := t.newBlock(capacity)
		if err == nil {
			t.blocks = []*block{b}

			return t, nil
		}

		if capacity <= MinBlockEntries {
			t.tracer("hashlib: primary block allocation failed at %d entries: %v", capacity, err)

			return nil, err
		}

		capacity /= 2
	}
}

func defaultAlloc(n int) ([]byte, error) {
	return make([]byte, n), nil
}

// uniformBytes reports whether every byte of p is the same, which enables
// the single-byte fill path for sentinel initialisation.
func uniformBytes(p []byte) bool {
	for _, b := range p[1:] {
		if b != p[0] {
			return false
		}
	}

	return true
}

// Insert looks the key up across all blocks, adding it to the last block if
// absent. It returns the value slice for the key and whether it was newly
// inserted. After Inserted the caller must write a non-sentinel value into
// the slice.
func (t *Table) Insert(key []byte) ([]byte, InsertStatus, error) {
	if t.sorted {
		return nil, 0, fmt.Errorf("insert: %w", ErrSortedTable)
	}

	if len(key) != t.keyLen {
		return nil, 0, fmt.Errorf("%w: key length %d, want %d", ErrBadArgument, len(key), t.keyLen)
	}

	if t.blocks[len(t.blocks)-1].isFull() {
		if err := t.grow(); err != nil {
			return nil, 0, err
		}
	}

	var (
		last    *block
		lastIdx int
	)

	for _, b := range t.blocks {
		idx, found := t.probe(b, key)
		if found {
			return b.value(idx), Duplicate, nil
		}

		last, lastIdx = b, idx
	}

	// The last iteration already probed the insertion block, so its empty
	// slot index is the insertion site.
	copy(last.key(lastIdx), key)
	last.count++

	return last.value(lastIdx), Inserted, nil
}

// Lookup returns the value slice for key, or found=false if absent.
func (t *Table) Lookup(key []byte) ([]byte, bool, error) {
	if t.sorted {
		return nil, false, fmt.Errorf("lookup: %w", ErrSortedTable)
	}

	if len(key) != t.keyLen {
		return nil, false, fmt.Errorf("%w: key length %d, want %d", ErrBadArgument, len(key), t.keyLen)
	}

	for _, b := range t.blocks {
		if idx, found := t.probe(b, key); found {
			return b.value(idx), true, nil
		}
	}

	return nil, false, nil
}

// Len returns the number of entries across all blocks.
func (t *Table) Len() uint64 {
	var n uint64
	for _, b := range t.blocks {
		n += uint64(b.count)
	}

	return n
}

// Buckets returns the number of slots across all blocks.
func (t *Table) Buckets() uint64 {
	var n uint64
	for _, b := range t.blocks {
		n += uint64(b.capacity)
	}

	return n
}

// KeyLen returns the fixed key width in bytes.
func (t *Table) KeyLen() int { return t.keyLen }

// ValueLen returns the fixed value width in bytes.
func (t *Table) ValueLen() int { return t.valueLen }

// TableInfo is a point-in-time occupancy snapshot.
type TableInfo struct {
	// Entries and Buckets mirror Len and Buckets.
	Entries uint64
	Buckets uint64

	// Blocks is the current block count.
	Blocks int

	// Load is the ratio of entries to buckets.
	Load float32

	// RecommendRehash is set when entries are spread across several blocks
	// and collapsing them into one is still within the memory budget.
	RecommendRehash bool
}

// Info collects occupancy statistics.
func (t *Table) Info() TableInfo {
	info := TableInfo{
		Entries: t.Len(),
		Buckets: t.Buckets(),
		Blocks:  len(t.blocks),
	}

	if info.Buckets > 0 {
		info.Load = float32(info.Entries) / float32(info.Buckets)
	}

	info.RecommendRehash = len(t.blocks) > 1 && !t.sorted && !t.rehashFailed &&
		info.Buckets < uint64(t.primaryCap)

	return info
}

// Destroy releases all block storage. The table must not be used afterwards.
func (t *Table) Destroy() {
	t.blocks = nil
	t.cmp = nil
}

// Sentinel returns a copy of the empty-value sentinel. Storing this pattern
// as a real value makes the slot indistinguishable from an empty one.
func (t *Table) Sentinel() []byte {
	return append([]byte(nil), t.sentinel...)
}

// IsSentinel reports whether v equals the empty-value sentinel, letting
// callers honor the contract that live values must differ from it.
func (t *Table) IsSentinel(v []byte) bool {
	return bytes.Equal(v, t.sentinel)
}
