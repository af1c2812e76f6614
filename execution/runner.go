package execution

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/logging"
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

// MemoryFormat is the source format of datasets registered with RegisterDataset.
const MemoryFormat = "memory"

// LocalRunner executes logical plans over in-memory partitions inside the current process.
//
// Partition-local operators (projection, filter, local limit, local aggregate, map partition)
// are chained into one executor pipeline per partition, and partitions run concurrently up to
// the configured parallelism. Sort, global limit, repartition, coalesce and join wait for all of
// their input partitions first.
//
// A LocalRunner is safe for concurrent use.
type LocalRunner struct {
	datasets    *xsync.MapOf[string, *storage.PartitionSet]
	parallelism int
	logger      logging.Logger
}

// NewLocalRunner creates a runner. A parallelism below one means one worker per CPU.
func NewLocalRunner(parallelism int, logger logging.Logger) *LocalRunner {
	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &LocalRunner{
		datasets:    xsync.NewMapOf[string, *storage.PartitionSet](),
		parallelism: parallelism,
		logger:      logger.With(logging.String("component", "runner")),
	}
}

// RegisterDataset makes data readable by scans of MemoryFormat sources at location.
func (r *LocalRunner) RegisterDataset(location string, data *storage.PartitionSet) {
	r.datasets.Store(location, data)
	r.logger.Debug("registered dataset",
		logging.String("location", location),
		logging.Int("partitions", data.NumPartitions()),
		logging.Int("rows", data.NumRows()))
}

// Dataset returns the data registered at location.
func (r *LocalRunner) Dataset(location string) (*storage.PartitionSet, bool) {
	return r.datasets.Load(location)
}

// DropDataset forgets the data registered at location.
func (r *LocalRunner) DropDataset(location string) {
	r.datasets.Delete(location)
}

// Run executes plan and returns its output partitions. The output always has
// plan.NumPartitions() partitions and plan.OutputSchema() as its schema.
func (r *LocalRunner) Run(ctx context.Context, plan planner.PlanNode) (*storage.PartitionSet, error) {
	x := &run{
		runner: r,
		memo:   xsync.NewMapOf[planner.PlanNode, *storage.PartitionSet](),
	}
	return x.execute(ctx, plan)
}

// run is the state of a single Run call. Shared sub-plans, such as both sides of a self-join,
// are executed once per run; memo is keyed by node identity.
type run struct {
	runner *LocalRunner
	memo   *xsync.MapOf[planner.PlanNode, *storage.PartitionSet]
}

func (x *run) execute(ctx context.Context, node planner.PlanNode) (*storage.PartitionSet, error) {
	if out, ok := x.memo.Load(node); ok {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := x.dispatch(ctx, node)
	if err != nil {
		return nil, err
	}
	common.Assert(out.NumPartitions() == node.NumPartitions(),
		"%s produced %d partitions, declared %d", node, out.NumPartitions(), node.NumPartitions())

	x.memo.Store(node, out)
	x.runner.logger.Debug("executed plan node",
		logging.String("node", node.String()),
		logging.Int("partitions", out.NumPartitions()),
		logging.Int("rows", out.NumRows()),
		logging.Any("elapsed", time.Since(start)))
	return out, nil
}

func (x *run) dispatch(ctx context.Context, node planner.PlanNode) (*storage.PartitionSet, error) {
	switch n := node.(type) {
	case *planner.ScanNode:
		return x.scan(n)
	case *planner.HTTPRequestNode:
		return nil, common.Errorf(common.NotSupportedError, "the local runner cannot serve %s", n)
	case *planner.ProjectionNode, *planner.FilterNode, *planner.LocalLimitNode,
		*planner.LocalAggregateNode, *planner.MapPartitionNode:
		return x.pipeline(ctx, n)
	case *planner.SortNode:
		in, err := x.execute(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		sorted, err := drain(x.wholeSetContext(ctx), NewSortExecutor(n, NewPartitionScanExecutor(n.Child, in.Partitions()...)))
		if err != nil {
			return nil, err
		}
		return storage.Split(n.OutputSchema(), sorted, n.NumPartitions()), nil
	case *planner.GlobalLimitNode:
		in, err := x.execute(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		return globalLimit(in, n.Limit), nil
	case *planner.RepartitionNode:
		in, err := x.execute(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		p := n.Partitioning()
		if p.Scheme == planner.PartitionHash {
			return hashPartition(in, p.PartitionBy, p.NumPartitions), nil
		}
		return roundRobinPartition(in, p.NumPartitions), nil
	case *planner.CoalesceNode:
		in, err := x.execute(ctx, n.Child)
		if err != nil {
			return nil, err
		}
		return coalesce(in, n.NumPartitions()), nil
	case *planner.JoinNode:
		return x.join(ctx, n)
	}
	return nil, common.Errorf(common.NotSupportedError, "no executor for plan node %s", node)
}

func (x *run) scan(n *planner.ScanNode) (*storage.PartitionSet, error) {
	if n.Source.Format != MemoryFormat {
		return nil, common.Errorf(common.NotSupportedError, "the local runner cannot read %s sources", n.Source.Format)
	}
	data, ok := x.runner.datasets.Load(n.Source.Location)
	if !ok {
		return nil, common.Errorf(common.NoSuchObjectError, "no dataset registered at '%s'", n.Source.Location)
	}
	if !data.Schema().Equal(n.OutputSchema()) {
		return nil, common.Errorf(common.SchemaError, "dataset '%s' has schema %s, scan declares %s",
			n.Source.Location, data.Schema(), n.OutputSchema())
	}
	if data.NumPartitions() != n.NumPartitions() {
		return storage.Split(data.Schema(), data.Tuples(), n.NumPartitions()), nil
	}
	return data, nil
}

// isPartitionLocal reports whether node can run inside a per-partition pipeline.
func isPartitionLocal(node planner.PlanNode) bool {
	switch node.(type) {
	case *planner.ProjectionNode, *planner.FilterNode, *planner.LocalLimitNode,
		*planner.LocalAggregateNode, *planner.MapPartitionNode:
		return true
	}
	return false
}

// pipeline executes the chain of partition-local nodes rooted at top as one executor tree per
// partition of the first node below the chain.
func (x *run) pipeline(ctx context.Context, top planner.PlanNode) (*storage.PartitionSet, error) {
	var chain []planner.PlanNode
	base := top
	for isPartitionLocal(base) {
		chain = append(chain, base)
		base = base.Children()[0]
	}
	in, err := x.execute(ctx, base)
	if err != nil {
		return nil, err
	}

	out := make([]*storage.Partition, in.NumPartitions())
	err = x.forEachPartition(ctx, in.NumPartitions(), func(ectx *ExecutorContext) error {
		var exec Executor = NewPartitionScanExecutor(base, in.Partition(ectx.Partition()))
		for i := len(chain) - 1; i >= 0; i-- {
			exec = wrapExecutor(chain[i], exec)
		}
		tuples, err := drain(ectx, exec)
		if err != nil {
			return err
		}
		out[ectx.Partition()] = storage.NewPartition(top.OutputSchema(), tuples)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return storage.NewPartitionSet(top.OutputSchema(), out), nil
}

func wrapExecutor(node planner.PlanNode, child Executor) Executor {
	switch n := node.(type) {
	case *planner.ProjectionNode:
		return NewProjectionExecutor(n, child)
	case *planner.FilterNode:
		return NewFilter(n, child)
	case *planner.LocalLimitNode:
		return NewLimitExecutor(n, n.Limit, child)
	case *planner.LocalAggregateNode:
		return NewAggregateExecutor(n, child)
	case *planner.MapPartitionNode:
		return NewMapPartitionExecutor(n, child)
	}
	panic(fmt.Sprintf("%s is not partition-local", node))
}

// join shuffles both inputs on their join keys into the node's partition count, then joins each
// pair of co-located partitions.
func (x *run) join(ctx context.Context, n *planner.JoinNode) (*storage.PartitionSet, error) {
	left, err := x.execute(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := x.execute(ctx, n.Right)
	if err != nil {
		return nil, err
	}
	left = hashPartition(left, n.LeftKeys, n.NumPartitions())
	right = hashPartition(right, n.RightKeys, n.NumPartitions())

	out := make([]*storage.Partition, n.NumPartitions())
	err = x.forEachPartition(ctx, n.NumPartitions(), func(ectx *ExecutorContext) error {
		i := ectx.Partition()
		exec := NewHashJoinExecutor(n,
			NewPartitionScanExecutor(n.Left, left.Partition(i)),
			NewPartitionScanExecutor(n.Right, right.Partition(i)))
		tuples, err := drain(ectx, exec)
		if err != nil {
			return err
		}
		out[i] = storage.NewPartition(n.OutputSchema(), tuples)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return storage.NewPartitionSet(n.OutputSchema(), out), nil
}

func (x *run) wholeSetContext(ctx context.Context) *ExecutorContext {
	return NewExecutorContext(ctx, -1, x.runner.logger)
}

// forEachPartition calls fn for partitions 0..n-1 with at most parallelism calls in flight and
// returns the first error. No new partition is started once ctx is done.
func (x *run) forEachPartition(ctx context.Context, n int, fn func(ectx *ExecutorContext) error) error {
	errs := make([]error, n)
	sem := make(chan struct{}, x.runner.parallelism)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = common.Errorf(common.ExecutionError, "partition %d: %v", i, r)
				}
			}()
			ectx := NewExecutorContext(ctx, i, x.runner.logger.With(logging.Int("partition", i)))
			errs[i] = fn(ectx)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
