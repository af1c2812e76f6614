package planner

import (
	"fmt"

	"mit.edu/dsg/godf/common"
)

// AggregateClause is one primitive reduction computed by a LocalAggregateNode. Expr must be an
// aggregation call of the same Kind, optionally aliased.
type AggregateClause struct {
	Expr Expr
	Kind AggKind
}

func (c AggregateClause) String() string {
	return c.Expr.String()
}

// LocalAggregateNode reduces each partition of its child independently, producing one row per
// distinct group-by key within the partition (exactly one row when there are no keys).
// The output is the group-by columns followed by the aggregate columns.
type LocalAggregateNode struct {
	basePlan
	Child         PlanNode
	GroupByClause ExprProjection    // resolved against Child.OutputSchema()
	AggClauses    []AggregateClause // resolved against Child.OutputSchema()
}

func NewLocalAggregateNode(child PlanNode, aggregates []AggregateClause, groupBy ExprProjection) (*LocalAggregateNode, error) {
	if len(aggregates) == 0 {
		return nil, common.Errorf(common.ConfigurationError, "aggregation needs at least one aggregate")
	}
	inSchema := child.OutputSchema()
	keys, err := groupBy.Resolve(inSchema)
	if err != nil {
		return nil, err
	}
	for _, k := range keys.exprs {
		if t, _ := k.ResolvedType(); t.IsList() {
			return nil, common.Errorf(common.SchemaError, "cannot group by list expression %s", k)
		}
	}

	resolved := make([]AggregateClause, len(aggregates))
	outExprs := keys.Exprs()
	for i, clause := range aggregates {
		call, ok := unwrapAggregate(clause.Expr)
		if !ok {
			return nil, common.Errorf(common.ConfigurationError, "%s is not an aggregation call", clause.Expr)
		}
		if call.kind != clause.Kind {
			return nil, common.Errorf(common.ConfigurationError, "aggregate %s declared as %s", clause.Expr, clause.Kind)
		}
		e, err := clause.Expr.Resolve(inSchema)
		if err != nil {
			return nil, err
		}
		resolved[i] = AggregateClause{Expr: e, Kind: clause.Kind}
		outExprs = append(outExprs, e)
	}
	schema, err := NewExprProjection(outExprs...).ToSchema()
	if err != nil {
		return nil, err
	}

	partitioning := RandomPartitioning(child.NumPartitions())
	if child.Partitioning().IsHashOn(keys.Names()) {
		// Keys keep their names; rebind them to the output offsets.
		by, err := NewExprProjection(Cols(keys.Names()...)...).Resolve(schema)
		if err != nil {
			return nil, err
		}
		partitioning = HashPartitioning(child.NumPartitions(), by)
	}
	return &LocalAggregateNode{
		basePlan:      basePlan{outputSchema: schema, partitioning: partitioning},
		Child:         child,
		GroupByClause: keys,
		AggClauses:    resolved,
	}, nil
}

func (n *LocalAggregateNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *LocalAggregateNode) String() string {
	return fmt.Sprintf("LocalAggregate: %v GroupBy(%s)", n.AggClauses, n.GroupByClause)
}
