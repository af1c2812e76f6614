package planner

import (
	"fmt"

	"mit.edu/dsg/godf/common"
)

// MapPartitionNode applies a MapPartitionOp to every partition of its child.
type MapPartitionNode struct {
	basePlan
	Child PlanNode
	Op    MapPartitionOp
}

func NewMapPartitionNode(child PlanNode, op MapPartitionOp) (*MapPartitionNode, error) {
	if in := op.InputSchema(); in == nil || !in.Equal(child.OutputSchema()) {
		return nil, common.Errorf(common.SchemaError, "%s was built for %s, but its input produces %s",
			op, op.InputSchema(), child.OutputSchema())
	}
	schema := op.OutputSchema()
	if schema == nil || schema.NumFields() == 0 {
		return nil, common.Errorf(common.SchemaError, "%s produces no columns", op)
	}
	partitioning := child.Partitioning()
	if partitioning.Scheme == PartitionHash {
		// Hash placement survives only if every key column is passed through untouched.
		in := child.OutputSchema()
		for _, name := range partitioning.PartitionBy.Names() {
			before, _ := in.FieldByName(name)
			after, ok := schema.FieldByName(name)
			if !ok || after != before {
				partitioning = RandomPartitioning(child.NumPartitions())
				break
			}
		}
	}
	return &MapPartitionNode{
		basePlan: basePlan{outputSchema: schema, partitioning: partitioning},
		Child:    child,
		Op:       op,
	}, nil
}

func (n *MapPartitionNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *MapPartitionNode) String() string {
	return fmt.Sprintf("MapPartition: %s", n.Op)
}
