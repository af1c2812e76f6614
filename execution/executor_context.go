package execution

import (
	"context"

	"mit.edu/dsg/godf/logging"
)

// ExecutorContext holds all the state and resources required for executing one partition.
// It is passed to every Executor during Init.
type ExecutorContext struct {
	ctx       context.Context
	partition int
	logger    logging.Logger
}

func NewExecutorContext(ctx context.Context, partition int, logger logging.Logger) *ExecutorContext {
	return &ExecutorContext{
		ctx:       ctx,
		partition: partition,
		logger:    logger,
	}
}

func (ctx *ExecutorContext) Context() context.Context {
	return ctx.ctx
}

// Partition returns the index of the partition being processed, or -1 for whole-set operators.
func (ctx *ExecutorContext) Partition() int {
	return ctx.partition
}

func (ctx *ExecutorContext) Logger() logging.Logger {
	return ctx.logger
}
