package execution

import (
	"mit.edu/dsg/godf/planner"
	"mit.edu/dsg/godf/storage"
)

// Executor is the interface that all physical execution nodes must implement.
// An executor tree processes the tuples of a single partition, or of a whole materialized
// partition set for the operators that need every partition.
type Executor interface {
	PlanNode() planner.PlanNode

	// Init initializes the executor with a specific execution context.
	Init(ctx *ExecutorContext) error

	// Next retrieves the next tuple from the executor.
	Next() bool

	// Current returns the tuple most recently read by Next().
	Current() storage.Tuple

	// Error returns the last error encountered by the executor, if any.
	Error() error

	// Close cleans up any resources held by the executor.
	Close() error
}

// drain runs e to completion and collects its output.
func drain(ctx *ExecutorContext, e Executor) ([]storage.Tuple, error) {
	if err := e.Init(ctx); err != nil {
		return nil, err
	}
	var out []storage.Tuple
	for e.Next() {
		out = append(out, e.Current())
	}
	err := e.Error()
	if cerr := e.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
