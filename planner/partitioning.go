package planner

import "fmt"

// PartitionScheme says how rows are assigned to partitions.
type PartitionScheme int

const (
	// PartitionRandom makes no promise about which partition a row lands in.
	PartitionRandom PartitionScheme = iota
	// PartitionHash co-locates rows with equal partition keys.
	PartitionHash
)

func (s PartitionScheme) String() string {
	switch s {
	case PartitionRandom:
		return "Random"
	case PartitionHash:
		return "Hash"
	}
	return "???"
}

// Partitioning describes how a node's output is split. PartitionBy is non-empty iff the scheme
// is PartitionHash.
type Partitioning struct {
	Scheme        PartitionScheme
	NumPartitions int
	PartitionBy   ExprProjection
}

func RandomPartitioning(n int) Partitioning {
	return Partitioning{Scheme: PartitionRandom, NumPartitions: n}
}

func HashPartitioning(n int, by ExprProjection) Partitioning {
	return Partitioning{Scheme: PartitionHash, NumPartitions: n, PartitionBy: by}
}

// IsHashOn reports whether the partitioning hashes on exactly the given column names, in order.
func (p Partitioning) IsHashOn(names []string) bool {
	if p.Scheme != PartitionHash || p.PartitionBy.Len() != len(names) {
		return false
	}
	for i, n := range p.PartitionBy.Names() {
		if n != names[i] {
			return false
		}
	}
	return true
}

func (p Partitioning) String() string {
	if p.Scheme == PartitionHash {
		return fmt.Sprintf("Hash(%d, by=%s)", p.NumPartitions, p.PartitionBy)
	}
	return fmt.Sprintf("Random(%d)", p.NumPartitions)
}
