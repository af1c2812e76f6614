package planner

import (
	"fmt"

	"mit.edu/dsg/godf/common"
)

type SortDirection int

const (
	SortOrderAscending SortDirection = iota
	SortOrderDescending
)

func (d SortDirection) String() string {
	if d == SortOrderDescending {
		return "DESC"
	}
	return "ASC"
}

type OrderByClause struct {
	Expr      Expr
	Direction SortDirection
}

// SortNode totally orders the tuples of its child. Only a single sort key is supported.
type SortNode struct {
	basePlan
	Child   PlanNode
	OrderBy []OrderByClause
}

func NewSortNode(child PlanNode, orderBy []OrderByClause) (*SortNode, error) {
	if len(orderBy) != 1 {
		return nil, common.Errorf(common.ConfigurationError, "sort takes exactly one key, got %d", len(orderBy))
	}
	resolved := make([]OrderByClause, len(orderBy))
	for i, c := range orderBy {
		e, err := c.Expr.Resolve(child.OutputSchema())
		if err != nil {
			return nil, err
		}
		if t, _ := e.ResolvedType(); t.IsList() {
			return nil, common.Errorf(common.SchemaError, "cannot sort by list expression %s", e)
		}
		resolved[i] = OrderByClause{Expr: e, Direction: c.Direction}
	}
	return &SortNode{
		basePlan: basePlan{outputSchema: child.OutputSchema(), partitioning: child.Partitioning()},
		Child:    child,
		OrderBy:  resolved,
	}, nil
}

func (n *SortNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *SortNode) String() string {
	c := n.OrderBy[0]
	return fmt.Sprintf("Sort: %s %s", c.Expr, c.Direction)
}
