// Package hashlib provides an in-memory hash table for fixed-width byte
// keys and values, built for large-scale network-flow aggregation.
//
// Storage is split across up to eight power-of-two-sized blocks probed with
// double hashing. When an insert drives the newest block past its load
// threshold the table either appends another block or rehashes everything
// into a single larger one, bounded by a total memory budget (see
// MaxMemoryEnv). Slot occupancy is encoded in the value bytes: a value equal
// to the table's sentinel marks the slot empty, which is why a sentinel must
// never be stored as a real value and why deletion is not supported.
//
// A table can be sorted in place once filling is done. Sorting compacts each
// block, orders entries by a caller-supplied key comparator, and switches
// iteration to a merge across blocks; inserts and lookups are rejected from
// then on.
//
// Tables are not safe for concurrent mutation.
package hashlib
