package storage

import (
	"strings"

	"mit.edu/dsg/godf/common"
)

// Tuple is one row of a partition. It is the unit exchanged between partition-local operators
// (filter, projection, aggregation) inside a Runner.
//
// A Tuple does not carry its schema; the partition that holds it does. Tuples are immutable
// once built: operators that produce new rows build new Tuples instead of writing into their
// inputs.
type Tuple struct {
	values []common.Value
}

// FromValues creates a Tuple from a list of values.
func FromValues(values ...common.Value) Tuple {
	return Tuple{values: values}
}

// Extend returns a NEW Tuple consisting of the current tuple's fields
// followed by the provided newValues.
func (t Tuple) Extend(newValues []common.Value) Tuple {
	out := make([]common.Value, 0, len(t.values)+len(newValues))
	out = append(out, t.values...)
	out = append(out, newValues...)
	return Tuple{values: out}
}

// MergeTuples concatenates the fields of left and right into a new Tuple.
func MergeTuples(left Tuple, right Tuple) Tuple {
	return left.Extend(right.values)
}

// Project returns a new Tuple holding the fields at the given indices, in that order.
func (t Tuple) Project(indices []int) Tuple {
	out := make([]common.Value, len(indices))
	for i, idx := range indices {
		out[i] = t.GetValue(idx)
	}
	return Tuple{values: out}
}

// IsNil checks if the tuple is uninitialized.
func (t Tuple) IsNil() bool {
	return t.values == nil
}

// NumColumns returns the number of fields in the tuple.
func (t Tuple) NumColumns() int {
	return len(t.values)
}

// GetValue retrieves the value at index i.
func (t Tuple) GetValue(i int) common.Value {
	common.Assert(i >= 0 && i < len(t.values), "tuple index %d out of range [0, %d)", i, len(t.values))
	return t.values[i]
}

// Values returns the fields of the tuple. Callers must not modify the returned slice.
func (t Tuple) Values() []common.Value {
	return t.values
}

func (t Tuple) String() string {
	parts := make([]string, len(t.values))
	for i, v := range t.values {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
