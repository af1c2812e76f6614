package storage

import (
	"fmt"

	"mit.edu/dsg/godf/common"
)

// Partition is one physical slice of a dataset: an ordered list of tuples that all conform to
// the same schema.
type Partition struct {
	schema *common.Schema
	tuples []Tuple
}

// NewPartition wraps tuples in a Partition. Every tuple must have one value per schema field.
func NewPartition(schema *common.Schema, tuples []Tuple) *Partition {
	for _, t := range tuples {
		common.Assert(t.NumColumns() == schema.NumFields(),
			"tuple width %d does not match schema %s", t.NumColumns(), schema)
	}
	return &Partition{schema: schema, tuples: tuples}
}

// Schema returns the schema of the partition.
func (p *Partition) Schema() *common.Schema {
	return p.schema
}

// NumRows returns the number of tuples held.
func (p *Partition) NumRows() int {
	return len(p.tuples)
}

// Tuple returns the i-th tuple.
func (p *Partition) Tuple(i int) Tuple {
	return p.tuples[i]
}

// Tuples returns the tuples of the partition. Callers must not modify the returned slice.
func (p *Partition) Tuples() []Tuple {
	return p.tuples
}

// Head returns a partition holding at most the first n tuples.
func (p *Partition) Head(n int) *Partition {
	if n >= len(p.tuples) {
		return p
	}
	return &Partition{schema: p.schema, tuples: p.tuples[:n]}
}

// PartitionSet is the materialized result of executing a plan: one Partition per output
// partition, all sharing a schema.
type PartitionSet struct {
	schema     *common.Schema
	partitions []*Partition
}

// NewPartitionSet groups partitions that share schema.
func NewPartitionSet(schema *common.Schema, partitions []*Partition) *PartitionSet {
	for _, p := range partitions {
		common.Assert(p.schema.Equal(schema), "partition schema %s does not match %s", p.schema, schema)
	}
	return &PartitionSet{schema: schema, partitions: partitions}
}

// Schema returns the shared schema.
func (ps *PartitionSet) Schema() *common.Schema {
	return ps.schema
}

// NumPartitions returns the number of partitions.
func (ps *PartitionSet) NumPartitions() int {
	return len(ps.partitions)
}

// Partition returns the i-th partition.
func (ps *PartitionSet) Partition(i int) *Partition {
	return ps.partitions[i]
}

// Partitions returns all partitions in order.
func (ps *PartitionSet) Partitions() []*Partition {
	return ps.partitions
}

// NumRows returns the total number of tuples across partitions.
func (ps *PartitionSet) NumRows() int {
	n := 0
	for _, p := range ps.partitions {
		n += p.NumRows()
	}
	return n
}

// Tuples concatenates the tuples of every partition in partition order.
func (ps *PartitionSet) Tuples() []Tuple {
	out := make([]Tuple, 0, ps.NumRows())
	for _, p := range ps.partitions {
		out = append(out, p.tuples...)
	}
	return out
}

// ToMaps converts every row into a column-name keyed map of plain Go values.
func (ps *PartitionSet) ToMaps() []map[string]any {
	names := ps.schema.ColumnNames()
	out := make([]map[string]any, 0, ps.NumRows())
	for _, p := range ps.partitions {
		for _, t := range p.tuples {
			row := make(map[string]any, len(names))
			for i, name := range names {
				row[name] = t.GetValue(i).Interface()
			}
			out = append(out, row)
		}
	}
	return out
}

// FromMaps converts rows of plain Go values into numPartitions contiguous partitions.
// Missing keys become NULL; keys not in the schema are rejected.
func FromMaps(schema *common.Schema, rows []map[string]any, numPartitions int) (*PartitionSet, error) {
	if numPartitions < 1 {
		return nil, common.Errorf(common.ConfigurationError, "number of partitions must be positive, got %d", numPartitions)
	}
	tuples := make([]Tuple, len(rows))
	for r, row := range rows {
		for name := range row {
			if _, ok := schema.IndexOf(name); !ok {
				return nil, common.Errorf(common.SchemaError, "row %d has column '%s' which is not in schema %s", r, name, schema)
			}
		}
		values := make([]common.Value, schema.NumFields())
		for i := 0; i < schema.NumFields(); i++ {
			f := schema.Field(i)
			v, err := common.ValueOf(f.Type, row[f.Name])
			if err != nil {
				return nil, fmt.Errorf("row %d, column '%s': %w", r, f.Name, err)
			}
			values[i] = v
		}
		tuples[r] = FromValues(values...)
	}
	return Split(schema, tuples, numPartitions), nil
}

// Split distributes tuples into n contiguous, nearly equal partitions, preserving order.
func Split(schema *common.Schema, tuples []Tuple, n int) *PartitionSet {
	common.Assert(n >= 1, "cannot split into %d partitions", n)
	partitions := make([]*Partition, n)
	for i := 0; i < n; i++ {
		lo := i * len(tuples) / n
		hi := (i + 1) * len(tuples) / n
		partitions[i] = NewPartition(schema, tuples[lo:hi])
	}
	return NewPartitionSet(schema, partitions)
}
