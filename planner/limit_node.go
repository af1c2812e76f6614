package planner

import (
	"fmt"

	"mit.edu/dsg/godf/common"
)

// LocalLimitNode keeps at most Limit tuples of every partition.
type LocalLimitNode struct {
	basePlan
	Child PlanNode
	Limit int64
}

func NewLocalLimitNode(child PlanNode, limit int64) (*LocalLimitNode, error) {
	if limit < 0 {
		return nil, common.Errorf(common.ConfigurationError, "limit must be non-negative, got %d", limit)
	}
	return &LocalLimitNode{
		basePlan: basePlan{outputSchema: child.OutputSchema(), partitioning: child.Partitioning()},
		Child:    child,
		Limit:    limit,
	}, nil
}

func (n *LocalLimitNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *LocalLimitNode) String() string {
	return fmt.Sprintf("LocalLimit: %d", n.Limit)
}

// GlobalLimitNode keeps the first Limit tuples across all partitions, in partition order.
// It needs every partition of its child before it can emit anything.
type GlobalLimitNode struct {
	basePlan
	Child PlanNode
	Limit int64
}

func NewGlobalLimitNode(child PlanNode, limit int64) (*GlobalLimitNode, error) {
	if limit < 0 {
		return nil, common.Errorf(common.ConfigurationError, "limit must be non-negative, got %d", limit)
	}
	return &GlobalLimitNode{
		basePlan: basePlan{outputSchema: child.OutputSchema(), partitioning: child.Partitioning()},
		Child:    child,
		Limit:    limit,
	}, nil
}

func (n *GlobalLimitNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *GlobalLimitNode) String() string {
	return fmt.Sprintf("GlobalLimit: %d", n.Limit)
}
