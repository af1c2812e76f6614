package common

import (
	"fmt"

	"github.com/dchest/siphash"
)

// Assert checks a condition and panics if it is false.
//
// Use it for invariants that must always hold (a bound column read past the end of a tuple,
// a node kind the planner itself never emits). Caller mistakes such as a missing column or an
// unsupported join kind are reported as GoDFError values instead.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

const (
	hashK0 = 0x5d1ec810febed702
	hashK1 = 0x40fd7fee17262f71
)

// Hash computes a keyed SipHash-2-4 of the provided bytes. The keys are fixed so that the
// same key bytes always land in the same hash partition across runs.
func Hash(data []byte) uint64 {
	return siphash.Hash(hashK0, hashK1, data)
}

// HashValues hashes the canonical encoding of a list of values.
func HashValues(values []Value) uint64 {
	var buf []byte
	for _, v := range values {
		buf = v.AppendKey(buf)
	}
	return Hash(buf)
}
