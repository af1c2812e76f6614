package planner

import (
	"fmt"
	"strings"

	"mit.edu/dsg/godf/common"
)

type JoinType int

const (
	InnerJoin JoinType = iota
)

func (j JoinType) String() string {
	if j == InnerJoin {
		return "inner"
	}
	return "???"
}

// ParseJoinType accepts only "inner"; every other join kind is a ConfigurationError.
func ParseJoinType(s string) (JoinType, error) {
	if strings.EqualFold(strings.TrimSpace(s), "inner") {
		return InnerJoin, nil
	}
	return 0, common.Errorf(common.ConfigurationError, "unsupported join type '%s', only inner joins are supported", s)
}

// JoinNode is an equi-join between two children.
// The output is every left column, followed by the right columns that are not a join key with
// the same name as its paired left key. Any other right column whose name is already taken is
// renamed to "right.<name>".
type JoinNode struct {
	basePlan
	Left      PlanNode
	Right     PlanNode
	LeftKeys  ExprProjection // resolved against Left.OutputSchema()
	RightKeys ExprProjection // resolved against Right.OutputSchema()
	How       JoinType

	// RightOutput lists the right-side column offsets that appear in the output, in order.
	RightOutput []int
}

func NewJoinNode(left, right PlanNode, leftKeys, rightKeys ExprProjection, how JoinType) (*JoinNode, error) {
	if how != InnerJoin {
		return nil, common.Errorf(common.ConfigurationError, "unsupported join type %s", how)
	}
	if leftKeys.Len() == 0 || leftKeys.Len() != rightKeys.Len() {
		return nil, common.Errorf(common.ConfigurationError, "join needs the same non-zero number of keys on both sides, got %d and %d",
			leftKeys.Len(), rightKeys.Len())
	}
	lk, err := leftKeys.Resolve(left.OutputSchema())
	if err != nil {
		return nil, err
	}
	rk, err := rightKeys.Resolve(right.OutputSchema())
	if err != nil {
		return nil, err
	}
	for i := 0; i < lk.Len(); i++ {
		lt, _ := lk.Expr(i).ResolvedType()
		rt, _ := rk.Expr(i).ResolvedType()
		if lt != rt {
			return nil, common.Errorf(common.SchemaError, "join key %s has type %s but %s has type %s",
				lk.Expr(i), lt, rk.Expr(i), rt)
		}
		if lt.IsList() {
			return nil, common.Errorf(common.SchemaError, "cannot join on list expression %s", lk.Expr(i))
		}
	}

	leftSchema, rightSchema := left.OutputSchema(), right.OutputSchema()
	fields := leftSchema.Fields()
	var rightOutput []int
	for j, f := range rightSchema.Fields() {
		if isSharedKey(f.Name, lk, rk) {
			continue
		}
		if _, taken := leftSchema.IndexOf(f.Name); taken {
			f.Name = "right." + f.Name
		}
		fields = append(fields, f)
		rightOutput = append(rightOutput, j)
	}
	schema, err := common.NewSchema(fields...)
	if err != nil {
		return nil, err
	}

	return &JoinNode{
		basePlan:    basePlan{outputSchema: schema, partitioning: HashPartitioning(left.NumPartitions(), lk)},
		Left:        left,
		Right:       right,
		LeftKeys:    lk,
		RightKeys:   rk,
		How:         how,
		RightOutput: rightOutput,
	}, nil
}

// isSharedKey reports whether the right column name is a bare column key paired with a left key
// of the same name.
func isSharedKey(name string, leftKeys, rightKeys ExprProjection) bool {
	for i, e := range rightKeys.exprs {
		col, ok := e.(*ColumnExpr)
		if !ok || col.name != name {
			continue
		}
		if lname, ok := leftKeys.exprs[i].Name(); ok && lname == name {
			return true
		}
	}
	return false
}

func (n *JoinNode) Children() []PlanNode {
	return []PlanNode{n.Left, n.Right}
}

func (n *JoinNode) String() string {
	return fmt.Sprintf("Join(%s): %s = %s", n.How, n.LeftKeys, n.RightKeys)
}
