package execution

import (
	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

// The functions in this file move tuples between partitions. They need every input partition,
// so the runner only calls them once all of their input has been produced.

// hashPartition places every tuple by the siphash of its key values. Equal keys land in the same
// output partition; the relative order of tuples within a partition is preserved.
func hashPartition(in *storage.PartitionSet, keys planner.ExprProjection, n int) *storage.PartitionSet {
	buckets := make([][]storage.Tuple, n)
	keyBuffer := make([]common.Value, keys.Len())
	for _, p := range in.Partitions() {
		for _, t := range p.Tuples() {
			for i := range keyBuffer {
				keyBuffer[i] = keys.Expr(i).Eval(t)
			}
			b := common.HashValues(keyBuffer) % uint64(n)
			buckets[b] = append(buckets[b], t)
		}
	}
	return fromBuckets(in.Schema(), buckets)
}

// roundRobinPartition deals tuples to the output partitions in turn.
func roundRobinPartition(in *storage.PartitionSet, n int) *storage.PartitionSet {
	buckets := make([][]storage.Tuple, n)
	next := 0
	for _, p := range in.Partitions() {
		for _, t := range p.Tuples() {
			buckets[next] = append(buckets[next], t)
			next = (next + 1) % n
		}
	}
	return fromBuckets(in.Schema(), buckets)
}

// coalesce concatenates neighbouring input partitions into n output partitions without looking
// at the tuples.
func coalesce(in *storage.PartitionSet, n int) *storage.PartitionSet {
	m := in.NumPartitions()
	common.Assert(n >= 1 && n <= m, "cannot coalesce %d partitions into %d", m, n)
	buckets := make([][]storage.Tuple, n)
	for i, p := range in.Partitions() {
		b := i * n / m
		buckets[b] = append(buckets[b], p.Tuples()...)
	}
	return fromBuckets(in.Schema(), buckets)
}

// globalLimit keeps the first limit tuples, walking partitions in order. The partition count
// is unchanged.
func globalLimit(in *storage.PartitionSet, limit int64) *storage.PartitionSet {
	remaining := limit
	parts := make([]*storage.Partition, in.NumPartitions())
	for i, p := range in.Partitions() {
		take := int64(p.NumRows())
		if take > remaining {
			take = remaining
		}
		parts[i] = p.Head(int(take))
		remaining -= take
	}
	return storage.NewPartitionSet(in.Schema(), parts)
}

func fromBuckets(schema *common.Schema, buckets [][]storage.Tuple) *storage.PartitionSet {
	parts := make([]*storage.Partition, len(buckets))
	for i, b := range buckets {
		parts[i] = storage.NewPartition(schema, b)
	}
	return storage.NewPartitionSet(schema, parts)
}
