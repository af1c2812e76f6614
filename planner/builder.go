package planner

import (
	"mit.edu/dsg/godf/common"
)

// The functions in this file are the plan-building entry points used by DataFrame. Each one
// wraps its input(s) in new nodes; on error no node is returned.

func Project(input PlanNode, exprs ...Expr) (PlanNode, error) {
	n, err := NewProjectionNode(input, NewExprProjection(exprs...))
	if err != nil {
		return nil, err
	}
	return n, nil
}

func Filter(input PlanNode, predicate Expr) (PlanNode, error) {
	n, err := NewFilterNode(input, predicate)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func Sort(input PlanNode, key Expr, descending bool) (PlanNode, error) {
	dir := SortOrderAscending
	if descending {
		dir = SortOrderDescending
	}
	n, err := NewSortNode(input, []OrderByClause{{Expr: key, Direction: dir}})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Limit keeps the first n rows: a per-partition limit followed by a global one.
func Limit(input PlanNode, n int64) (PlanNode, error) {
	local, err := NewLocalLimitNode(input, n)
	if err != nil {
		return nil, err
	}
	global, err := NewGlobalLimitNode(local, n)
	if err != nil {
		return nil, err
	}
	return global, nil
}

// Repartition takes at most one partition key.
func Repartition(input PlanNode, numPartitions int, partitionBy []Expr, scheme PartitionScheme) (PlanNode, error) {
	if len(partitionBy) > 1 {
		return nil, common.Errorf(common.ConfigurationError, "repartition takes at most one key, got %d", len(partitionBy))
	}
	n, err := NewRepartitionNode(input, numPartitions, NewExprProjection(partitionBy...), scheme)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func Coalesce(input PlanNode, numPartitions int) (PlanNode, error) {
	n, err := NewCoalesceNode(input, numPartitions)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func Join(left, right PlanNode, leftKeys, rightKeys []Expr, how JoinType) (PlanNode, error) {
	n, err := NewJoinNode(left, right, NewExprProjection(leftKeys...), NewExprProjection(rightKeys...), how)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func MapPartition(input PlanNode, op MapPartitionOp) (PlanNode, error) {
	n, err := NewMapPartitionNode(input, op)
	if err != nil {
		return nil, err
	}
	return n, nil
}
