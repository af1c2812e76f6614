package planner

import (
	"fmt"

	"mit.edu/dsg/godf/common"
)

// SourceDescriptor identifies the data a ScanNode reads. The reader behind Format is external to
// the planner; only its declared schema and partition count are used here.
type SourceDescriptor struct {
	Name          string `json:"name"`
	Format        string `json:"format"`
	Location      string `json:"location"`
	NumPartitions int    `json:"num_partitions"`
}

func (d SourceDescriptor) String() string {
	return fmt.Sprintf("%s(%s, %s)", d.Format, d.Name, d.Location)
}

// ScanNode is a leaf that reads a source.
type ScanNode struct {
	basePlan
	Source SourceDescriptor
}

func NewScanNode(source SourceDescriptor, schema *common.Schema) (*ScanNode, error) {
	if schema == nil || schema.NumFields() == 0 {
		return nil, common.Errorf(common.SchemaError, "source %s declares no columns", source)
	}
	if source.NumPartitions < 1 {
		return nil, common.Errorf(common.ConfigurationError, "source %s must have at least one partition, got %d",
			source, source.NumPartitions)
	}
	return &ScanNode{
		basePlan: basePlan{outputSchema: schema, partitioning: RandomPartitioning(source.NumPartitions)},
		Source:   source,
	}, nil
}

func (n *ScanNode) Children() []PlanNode {
	return nil
}

func (n *ScanNode) String() string {
	return fmt.Sprintf("Scan: %s", n.Source)
}
