package execution

import (
	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

// ProjectionExecutor evaluates the output expressions of a ProjectionNode on every child tuple.
type ProjectionExecutor struct {
	plan    *planner.ProjectionNode
	child   Executor
	current storage.Tuple
}

func NewProjectionExecutor(plan *planner.ProjectionNode, child Executor) *ProjectionExecutor {
	return &ProjectionExecutor{
		plan:  plan,
		child: child,
	}
}

func (e *ProjectionExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *ProjectionExecutor) Init(ctx *ExecutorContext) error {
	e.current = storage.Tuple{}
	return e.child.Init(ctx)
}

func (e *ProjectionExecutor) Next() bool {
	if !e.child.Next() {
		return false
	}
	in := e.child.Current()
	values := make([]common.Value, e.plan.Expressions.Len())
	for i := range values {
		values[i] = e.plan.Expressions.Expr(i).Eval(in)
	}
	e.current = storage.FromValues(values...)
	return true
}

func (e *ProjectionExecutor) Current() storage.Tuple {
	return e.current
}

func (e *ProjectionExecutor) Error() error {
	return e.child.Error()
}

func (e *ProjectionExecutor) Close() error {
	return e.child.Close()
}
