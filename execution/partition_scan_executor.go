package execution

import (
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

// cancellation is checked once every this many tuples
const cancelCheckInterval = 1024

// PartitionScanExecutor streams the tuples of already materialized partitions, in order.
// It is the leaf of every executor tree; plan is the node that produced the partitions.
type PartitionScanExecutor struct {
	plan       planner.PlanNode
	partitions []*storage.Partition

	// Runtime state
	part  int
	index int
	seen  int
	ctx   *ExecutorContext
	err   error
}

func NewPartitionScanExecutor(plan planner.PlanNode, partitions ...*storage.Partition) *PartitionScanExecutor {
	return &PartitionScanExecutor{
		plan:       plan,
		partitions: partitions,
	}
}

func (e *PartitionScanExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *PartitionScanExecutor) Init(ctx *ExecutorContext) error {
	e.part = 0
	e.index = -1
	e.seen = 0
	e.ctx = ctx
	e.err = ctx.Context().Err()
	return e.err
}

func (e *PartitionScanExecutor) Next() bool {
	if e.err != nil {
		return false
	}
	e.seen++
	if e.seen%cancelCheckInterval == 0 {
		if e.err = e.ctx.Context().Err(); e.err != nil {
			return false
		}
	}
	e.index++
	for e.part < len(e.partitions) && e.index >= e.partitions[e.part].NumRows() {
		e.part++
		e.index = 0
	}
	return e.part < len(e.partitions)
}

func (e *PartitionScanExecutor) Current() storage.Tuple {
	return e.partitions[e.part].Tuple(e.index)
}

func (e *PartitionScanExecutor) Error() error {
	return e.err
}

func (e *PartitionScanExecutor) Close() error {
	return nil
}
