package execution

import (
	"github.com/tidwall/btree"
	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

type sortItem struct {
	key   common.Value
	seq   int
	tuple storage.Tuple
}

// SortExecutor totally orders the tuples of its child by the node's sort key.
// It is a blocking operator but uses lazy evaluation (sorts on first Next). Rows are kept in a
// B-tree ordered by (key, arrival sequence), which makes the sort stable.
type SortExecutor struct {
	plan  *planner.SortNode
	child Executor

	// Runtime state
	sortedTuples []storage.Tuple
	currentIndex int
	ctx          *ExecutorContext
}

func NewSortExecutor(plan *planner.SortNode, child Executor) *SortExecutor {
	return &SortExecutor{
		plan:  plan,
		child: child,
	}
}

func (e *SortExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *SortExecutor) Init(ctx *ExecutorContext) error {
	e.sortedTuples = nil
	e.currentIndex = -1
	e.ctx = ctx
	return e.child.Init(ctx)
}

func (e *SortExecutor) sortAllRows() bool {
	order := e.plan.OrderBy[0]
	// less function defines the ordering of items in the BTree.
	// Primary order by key, secondary order by arrival so equal keys keep their input order.
	less := func(a, b sortItem) bool {
		cmp := a.key.Compare(b.key)
		if order.Direction == planner.SortOrderDescending {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
		return a.seq < b.seq
	}
	tree := btree.NewBTreeG(less)

	seq := 0
	for e.child.Next() {
		t := e.child.Current()
		tree.Set(sortItem{key: order.Expr.Eval(t), seq: seq, tuple: t})
		seq++
	}

	if e.child.Error() != nil {
		return false
	}

	e.sortedTuples = make([]storage.Tuple, 0, tree.Len())
	tree.Scan(func(item sortItem) bool {
		e.sortedTuples = append(e.sortedTuples, item.tuple)
		return true
	})
	return true
}

func (e *SortExecutor) Next() bool {
	if e.sortedTuples == nil {
		if !e.sortAllRows() {
			return false
		}
	}
	e.currentIndex++
	return e.currentIndex < len(e.sortedTuples)
}

func (e *SortExecutor) Current() storage.Tuple {
	return e.sortedTuples[e.currentIndex]
}

func (e *SortExecutor) Error() error {
	return e.child.Error()
}

func (e *SortExecutor) Close() error {
	e.sortedTuples = nil
	return e.child.Close()
}
