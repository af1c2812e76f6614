package planner

import (
	"fmt"

	"mit.edu/dsg/godf/common"
)

// ProjectionNode computes a new set of columns from its child.
type ProjectionNode struct {
	basePlan
	Child       PlanNode
	Expressions ExprProjection // resolved against Child.OutputSchema()
}

func NewProjectionNode(child PlanNode, exprs ExprProjection) (*ProjectionNode, error) {
	if exprs.Len() == 0 {
		return nil, common.Errorf(common.SchemaError, "projection must produce at least one column")
	}
	resolved, err := exprs.Resolve(child.OutputSchema())
	if err != nil {
		return nil, err
	}
	schema, err := resolved.ToSchema()
	if err != nil {
		return nil, err
	}
	partitioning, err := projectPartitioning(child, resolved, schema)
	if err != nil {
		return nil, err
	}
	return &ProjectionNode{
		basePlan:    basePlan{outputSchema: schema, partitioning: partitioning},
		Child:       child,
		Expressions: resolved,
	}, nil
}

func (n *ProjectionNode) Children() []PlanNode {
	return []PlanNode{n.Child}
}

func (n *ProjectionNode) String() string {
	return fmt.Sprintf("Projection: %s", n.Expressions)
}

// projectPartitioning carries hash placement through a projection when every key column is
// passed through as a plain column reference under its own name. The keys are rebound to the
// output offsets. Otherwise the output is Random with the child's partition count.
func projectPartitioning(child PlanNode, exprs ExprProjection, schema *common.Schema) (Partitioning, error) {
	in := child.Partitioning()
	if in.Scheme != PartitionHash {
		return in, nil
	}
	keys := in.PartitionBy.Names()
	for _, key := range keys {
		if !passesThrough(exprs, key) {
			return RandomPartitioning(child.NumPartitions()), nil
		}
	}
	by, err := NewExprProjection(Cols(keys...)...).Resolve(schema)
	if err != nil {
		return Partitioning{}, err
	}
	return HashPartitioning(in.NumPartitions, by), nil
}

func passesThrough(exprs ExprProjection, name string) bool {
	for _, e := range exprs.exprs {
		if col, ok := e.(*ColumnExpr); ok && col.name == name {
			return true
		}
	}
	return false
}
