package planner

import (
	"mit.edu/dsg/godf/common"
)

// PlanNode represents the static structure of a logical plan.
// It is immutable: schema and partitioning are computed once, when the node is constructed.
// The set of implementations is closed; consumers type-switch over the concrete node types.
type PlanNode interface {
	// OutputSchema returns the schema of the tuples produced by this node.
	OutputSchema() *common.Schema

	// Partitioning returns how the output of this node is split across partitions.
	Partitioning() Partitioning

	// NumPartitions is shorthand for Partitioning().NumPartitions.
	NumPartitions() int

	// Children returns the child plan nodes.
	Children() []PlanNode

	// String returns a one-line description of the plan node.
	String() string

	planNode()
}

type basePlan struct {
	outputSchema *common.Schema
	partitioning Partitioning
}

func (b *basePlan) OutputSchema() *common.Schema {
	return b.outputSchema
}

func (b *basePlan) Partitioning() Partitioning {
	return b.partitioning
}

func (b *basePlan) NumPartitions() int {
	return b.partitioning.NumPartitions
}

func (b *basePlan) planNode() {}
