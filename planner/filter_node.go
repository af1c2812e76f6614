package planner

import (
	"fmt"

	"mit.edu/dsg/godf/common"
)

// FilterNode filters tuples from its child based on a predicate.
type FilterNode struct {
	basePlan
	Child     PlanNode
	Predicate Expr
}

func NewFilterNode(child PlanNode, predicate Expr) (*FilterNode, error) {
	resolved, err := predicate.Resolve(child.OutputSchema())
	if err != nil {
		return nil, err
	}
	if t, _ := resolved.ResolvedType(); t != common.BoolType {
		return nil, common.Errorf(common.SchemaError, "filter predicate %s must be bool, got %s", resolved, t)
	}
	return &FilterNode{
		basePlan:  basePlan{outputSchema: child.OutputSchema(), partitioning: child.Partitioning()},
		Child:     child,
		Predicate: resolved,
	}, nil
}

func (n *FilterNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *FilterNode) String() string {
	return fmt.Sprintf("Filter: %s", n.Predicate.String())
}
