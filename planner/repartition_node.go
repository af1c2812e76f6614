package planner

import (
	"fmt"

	"mit.edu/dsg/godf/common"
)

// RepartitionNode redistributes the tuples of its child into a new set of partitions.
type RepartitionNode struct {
	basePlan
	Child PlanNode
}

// NewRepartitionNode accepts any number of hash keys. The single-key restriction of the
// user-facing API is enforced by Repartition.
func NewRepartitionNode(child PlanNode, numPartitions int, partitionBy ExprProjection, scheme PartitionScheme) (*RepartitionNode, error) {
	if numPartitions < 1 {
		return nil, common.Errorf(common.ConfigurationError, "repartition needs at least one partition, got %d", numPartitions)
	}
	var partitioning Partitioning
	switch scheme {
	case PartitionRandom:
		if partitionBy.Len() != 0 {
			return nil, common.Errorf(common.ConfigurationError, "random repartition does not take keys, got %s", partitionBy)
		}
		partitioning = RandomPartitioning(numPartitions)
	case PartitionHash:
		if partitionBy.Len() == 0 {
			return nil, common.Errorf(common.ConfigurationError, "hash repartition requires at least one key")
		}
		resolved, err := partitionBy.Resolve(child.OutputSchema())
		if err != nil {
			return nil, err
		}
		if _, err := resolved.ToSchema(); err != nil {
			return nil, err
		}
		partitioning = HashPartitioning(numPartitions, resolved)
	default:
		return nil, common.Errorf(common.ConfigurationError, "unknown partition scheme %d", scheme)
	}
	return &RepartitionNode{
		basePlan: basePlan{outputSchema: child.OutputSchema(), partitioning: partitioning},
		Child:    child,
	}, nil
}

func (n *RepartitionNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *RepartitionNode) String() string {
	return fmt.Sprintf("Repartition: %s", n.partitioning)
}

// CoalesceNode merges the partitions of its child into fewer partitions without a key-based shuffle.
type CoalesceNode struct {
	basePlan
	Child PlanNode
}

func NewCoalesceNode(child PlanNode, numPartitions int) (*CoalesceNode, error) {
	if numPartitions < 1 || numPartitions > child.NumPartitions() {
		return nil, common.Errorf(common.ConfigurationError, "cannot coalesce %d partitions into %d",
			child.NumPartitions(), numPartitions)
	}
	return &CoalesceNode{
		basePlan: basePlan{outputSchema: child.OutputSchema(), partitioning: RandomPartitioning(numPartitions)},
		Child:    child,
	}, nil
}

func (n *CoalesceNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *CoalesceNode) String() string {
	return fmt.Sprintf("Coalesce: %d", n.NumPartitions())
}
