package execution

import (
	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

// HashJoinExecutor implements the hash join algorithm for one co-partitioned pair of inputs.
// It builds a hash table from the left child and probes it with the right child.
// It only supports Equi-Joins.
type HashJoinExecutor struct {
	plan        *planner.JoinNode
	left, right Executor

	// Runtime State
	keyBuffer      []common.Value
	leftHashTable  *ExecutionHashTable[[]storage.Tuple]
	currentMatches []storage.Tuple // The matching tuples from the left side for the current right tuple
	matchIndex     int             // The index of the next match to emit
	rightOutput    storage.Tuple   // The projected right tuple joined with the current matches
	current        storage.Tuple
	ctx            *ExecutorContext
	err            error
}

// NewHashJoinExecutor creates a new HashJoinExecutor.
func NewHashJoinExecutor(plan *planner.JoinNode, left Executor, right Executor) *HashJoinExecutor {
	return &HashJoinExecutor{
		plan:  plan,
		left:  left,
		right: right,
	}
}

func (e *HashJoinExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *HashJoinExecutor) Init(ctx *ExecutorContext) error {
	e.keyBuffer = make([]common.Value, e.plan.LeftKeys.Len())
	e.leftHashTable = nil
	e.currentMatches = nil
	e.matchIndex = 0
	e.ctx = ctx
	e.err = nil
	if err := e.left.Init(ctx); err != nil {
		return err
	}
	return e.right.Init(ctx)
}

// buildPhase consumes the entire left child and builds the hash table.
func (e *HashJoinExecutor) buildPhase() error {
	e.leftHashTable = NewExecutionHashTable[[]storage.Tuple]()
Outer:
	for e.left.Next() {
		tuple := e.left.Current()

		// Extract the Join Key from Left
		for i := range e.keyBuffer {
			val := e.plan.LeftKeys.Expr(i).Eval(tuple)
			// Skip any NULL keys
			if val.IsNull() {
				continue Outer
			}
			e.keyBuffer[i] = val
		}

		// Insert into the table (handling duplicates by appending to the slice)
		keyTuple := storage.FromValues(e.keyBuffer...)
		existing, found := e.leftHashTable.Get(keyTuple)
		if !found {
			keyTuple = keyTuple.Extend(nil)
			existing = make([]storage.Tuple, 0, 1)
		}
		e.leftHashTable.Insert(keyTuple, append(existing, tuple))
	}
	return e.left.Error()
}

func (e *HashJoinExecutor) Next() bool {
	if e.err != nil {
		return false
	}
	if e.leftHashTable == nil {
		if err := e.buildPhase(); err != nil {
			e.err = err
			return false
		}
	}

Outer:
	for {
		if e.matchIndex == len(e.currentMatches) {
			// no more matches left in the last scan, need to fetch the next right tuple
			if !e.right.Next() {
				if e.right.Error() != nil {
					e.err = e.right.Error()
				}
				return false
			}
			rightTuple := e.right.Current()
			for i := range e.keyBuffer {
				val := e.plan.RightKeys.Expr(i).Eval(rightTuple)
				if val.IsNull() {
					continue Outer
				}
				e.keyBuffer[i] = val
			}
			matches, found := e.leftHashTable.Get(storage.FromValues(e.keyBuffer...))
			if !found {
				continue
			}
			e.currentMatches = matches
			e.matchIndex = 0
			e.rightOutput = rightTuple.Project(e.plan.RightOutput)
		}
		leftTuple := e.currentMatches[e.matchIndex]
		e.matchIndex++
		e.current = storage.MergeTuples(leftTuple, e.rightOutput)
		return true
	}
}

func (e *HashJoinExecutor) Current() storage.Tuple {
	return e.current
}

func (e *HashJoinExecutor) Error() error {
	return e.err
}

func (e *HashJoinExecutor) Close() error {
	err1 := e.right.Close()
	err2 := e.left.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
