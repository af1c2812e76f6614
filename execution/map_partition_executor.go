package execution

import (
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

// MapPartitionExecutor collects its child's partition and hands it to the node's MapPartitionOp.
type MapPartitionExecutor struct {
	plan  *planner.MapPartitionNode
	child Executor

	// Runtime state
	output       *storage.Partition
	currentIndex int
	ctx          *ExecutorContext
	err          error
}

func NewMapPartitionExecutor(plan *planner.MapPartitionNode, child Executor) *MapPartitionExecutor {
	return &MapPartitionExecutor{
		plan:  plan,
		child: child,
	}
}

func (e *MapPartitionExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *MapPartitionExecutor) Init(ctx *ExecutorContext) error {
	e.output = nil
	e.currentIndex = -1
	e.ctx = ctx
	e.err = nil
	return e.child.Init(ctx)
}

func (e *MapPartitionExecutor) runOp() bool {
	var in []storage.Tuple
	for e.child.Next() {
		in = append(in, e.child.Current())
	}
	if e.err = e.child.Error(); e.err != nil {
		return false
	}
	e.output, e.err = e.plan.Op.Run(storage.NewPartition(e.plan.Child.OutputSchema(), in))
	return e.err == nil
}

func (e *MapPartitionExecutor) Next() bool {
	if e.err != nil {
		return false
	}
	if e.output == nil {
		if !e.runOp() {
			return false
		}
	}
	e.currentIndex++
	return e.currentIndex < e.output.NumRows()
}

func (e *MapPartitionExecutor) Current() storage.Tuple {
	return e.output.Tuple(e.currentIndex)
}

func (e *MapPartitionExecutor) Error() error {
	return e.err
}

func (e *MapPartitionExecutor) Close() error {
	e.output = nil
	return e.child.Close()
}
