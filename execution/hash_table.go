package execution

import (
	"mit.edu/dsg/godf/storage"
)

// ExecutionHashTable is a generic wrapper around a Go map keyed by tuples.
// It is meant for single-threaded use inside one operator (aggregates, hash joins).
// Iteration follows insertion order, so operator output is deterministic.
type ExecutionHashTable[T any] struct {
	// The map key is the canonical byte encoding of the key tuple. Go does not support byte arrays for keys
	table  map[string]int
	keys   []storage.Tuple
	values []T

	// scratchBuffer is a reusable byte slice for serializing keys during lookups
	scratchBuffer []byte
}

func NewExecutionHashTable[T any]() *ExecutionHashTable[T] {
	return &ExecutionHashTable[T]{
		table: make(map[string]int),
	}
}

func (ht *ExecutionHashTable[T]) encode(key storage.Tuple) []byte {
	ht.scratchBuffer = ht.scratchBuffer[:0]
	for _, v := range key.Values() {
		ht.scratchBuffer = v.AppendKey(ht.scratchBuffer)
	}
	return ht.scratchBuffer
}

// Insert adds or replaces the value stored under key.
func (ht *ExecutionHashTable[T]) Insert(key storage.Tuple, value T) {
	buf := ht.encode(key)
	if idx, ok := ht.table[string(buf)]; ok {
		ht.values[idx] = value
		return
	}
	// the map needs to own the key string, and scratchBuffer will be overwritten
	ht.table[string(buf)] = len(ht.keys)
	ht.keys = append(ht.keys, key)
	ht.values = append(ht.values, value)
}

// Get returns the value stored under key.
func (ht *ExecutionHashTable[T]) Get(key storage.Tuple) (value T, exists bool) {
	// Go should automatically optimize and avoid a heap allocation here
	idx, ok := ht.table[string(ht.encode(key))]
	if !ok {
		return value, false
	}
	return ht.values[idx], true
}

// Len returns the number of distinct keys.
func (ht *ExecutionHashTable[T]) Len() int {
	return len(ht.keys)
}

// Iterate calls iter for every key-value pair in insertion order.
func (ht *ExecutionHashTable[T]) Iterate(iter func(key storage.Tuple, value T)) {
	for i, key := range ht.keys {
		iter(key, ht.values[i])
	}
}
