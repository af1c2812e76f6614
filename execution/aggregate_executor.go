package execution

import (
	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

// AggregateExecutor implements hash-based aggregation for a LocalAggregateNode over one partition.
type AggregateExecutor struct {
	plan  *planner.LocalAggregateNode
	child Executor

	// Runtime state
	tuples       []storage.Tuple
	currentIndex int
	ctx          *ExecutorContext
	err          error
}

func NewAggregateExecutor(plan *planner.LocalAggregateNode, child Executor) *AggregateExecutor {
	return &AggregateExecutor{
		child:        child,
		plan:         plan,
		currentIndex: -1,
	}
}

func (e *AggregateExecutor) PlanNode() planner.PlanNode {
	return e.plan
}

func (e *AggregateExecutor) Init(ctx *ExecutorContext) error {
	e.tuples = nil
	e.currentIndex = -1
	e.ctx = ctx
	e.err = nil
	return e.child.Init(ctx)
}

func (e *AggregateExecutor) newAggregateState() []common.Value {
	state := make([]common.Value, len(e.plan.AggClauses))
	for i, agg := range e.plan.AggClauses {
		if agg.Kind == planner.AggCount {
			state[i] = common.NewIntValue(0)
		}
	}
	return state
}

func (e *AggregateExecutor) updateAggregateState(state []common.Value, tuple storage.Tuple) {
	for i, agg := range e.plan.AggClauses {
		val := agg.Expr.Eval(tuple)

		// aggregates ignore NULLs
		if val.IsNull() {
			continue
		}

		switch agg.Kind {
		case planner.AggCount:
			state[i] = common.NewIntValue(state[i].IntValue() + 1)
		case planner.AggSum:
			if state[i].IsNil() {
				state[i] = val
			} else if val.Type() == common.FloatType {
				state[i] = common.NewFloatValue(state[i].FloatValue() + val.FloatValue())
			} else {
				state[i] = common.NewIntValue(state[i].IntValue() + val.IntValue())
			}
		case planner.AggMin:
			if state[i].IsNil() || val.Compare(state[i]) < 0 {
				state[i] = val
			}
		case planner.AggMax:
			if state[i].IsNil() || val.Compare(state[i]) > 0 {
				state[i] = val
			}
		}
	}
}

func (e *AggregateExecutor) buildHashTable() bool {
	groupBy := e.plan.GroupByClause
	hashTable := NewExecutionHashTable[[]common.Value]()

	keyTupleBuffer := make([]common.Value, groupBy.Len())
	for e.child.Next() {
		tuple := e.child.Current()
		for i := range keyTupleBuffer {
			keyTupleBuffer[i] = groupBy.Expr(i).Eval(tuple)
		}
		keyTuple := storage.FromValues(keyTupleBuffer...)
		state, found := hashTable.Get(keyTuple)
		if !found {
			state = e.newAggregateState()
			// the table keeps the key, so it must not alias keyTupleBuffer
			hashTable.Insert(keyTuple.Extend(nil), state)
		}

		e.updateAggregateState(state, tuple)
	}

	if err := e.child.Error(); err != nil {
		e.err = err
		return false
	}

	// A global aggregation returns exactly one row, even over an empty partition.
	if groupBy.Len() == 0 && hashTable.Len() == 0 {
		hashTable.Insert(storage.FromValues(), e.newAggregateState())
	}

	e.tuples = make([]storage.Tuple, 0, hashTable.Len())
	hashTable.Iterate(func(t storage.Tuple, values []common.Value) {
		for i, v := range values {
			if v.IsNil() {
				// Convert sentinel IsNil to an actual NULL of the correct type
				outputType, _ := e.plan.AggClauses[i].Expr.ResolvedType()
				values[i] = common.NewNullValue(outputType)
			}
		}
		e.tuples = append(e.tuples, t.Extend(values))
	})
	return true
}

func (e *AggregateExecutor) Next() bool {
	if e.tuples == nil {
		if !e.buildHashTable() {
			return false
		}
	}
	e.currentIndex++
	return e.currentIndex < len(e.tuples)
}

func (e *AggregateExecutor) Current() storage.Tuple {
	return e.tuples[e.currentIndex]
}

func (e *AggregateExecutor) Error() error {
	return e.err
}

func (e *AggregateExecutor) Close() error {
	return e.child.Close()
}
