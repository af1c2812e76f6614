package execution

import (
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

// LimitExecutor limits the number of tuples returned by the child executor.
type LimitExecutor struct {
	plan  planner.PlanNode
	limit int64
	child Executor

	numEmitted int64
}

// NewLimitExecutor serves both LocalLimitNode (one executor per partition) and GlobalLimitNode
// (one executor over all partitions in order).
func NewLimitExecutor(plan planner.PlanNode, limit int64, child Executor) *LimitExecutor {
	return &LimitExecutor{
		plan:  plan,
		limit: limit,
		child: child,
	}
}

func (e *LimitExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *LimitExecutor) Init(ctx *ExecutorContext) error {
	e.numEmitted = 0
	return e.child.Init(ctx)
}

func (e *LimitExecutor) Next() bool {
	if e.numEmitted >= e.limit {
		return false
	}

	if e.child.Next() {
		e.numEmitted++
		return true
	}
	return false
}

func (e *LimitExecutor) Current() storage.Tuple {
	return e.child.Current()
}

func (e *LimitExecutor) Error() error {
	return e.child.Error()
}

func (e *LimitExecutor) Close() error {
	return e.child.Close()
}
